package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/vitalrisk/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

var (
	yesFlag = &urfave.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}

	resetCmd = &urfave.Command{
		Name:            "reset",
		Usage:           "Delete all recorded predictions and training runs and start fresh",
		HideHelpCommand: true,
		Flags:           []urfave.Flag{yesFlag},
		Action:          cmdReset,
	}

	errResetRemote = errors.New("reset only supports a local Sqlite database")
)

func cmdReset(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	if data.IsPostgresDSN(cfg.DBPath) {
		return errResetRemote
	}

	if !cmd.Bool(yesFlag.Name) {
		ok, err := confirm(os.Stdin, cfg.DBPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// close the DB before deleting the file
	if cfg.DB != nil {
		cfg.DB.Close()
		cfg.DB = nil
	}

	if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting database: %w", err)
	}

	slog.Info("database deleted", "path", cfg.DBPath)

	if err := data.Init(cfg.DBPath); err != nil {
		return fmt.Errorf("re-initializing database: %w", err)
	}

	slog.Info("database re-initialized", "path", cfg.DBPath)
	fmt.Println("Reset complete.")
	return nil
}

func confirm(in io.Reader, path string) (bool, error) {
	fmt.Printf("This will permanently delete all data in %s\n", path)
	fmt.Print("Are you sure? [y/N]: ")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading input: %w", err)
	}

	return strings.ToLower(strings.TrimSpace(answer)) == "y", nil
}
