package main

import (
	"github.com/mchmarny/vitalrisk/pkg/cli"
)

func main() {
	cli.Execute()
}
