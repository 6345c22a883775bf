package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/mchmarny/vitalrisk/pkg/risk"
	urfave "github.com/urfave/cli/v3"
)

var (
	limitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of rows to print (0: all)",
	}

	datasetCmd = &urfave.Command{
		Name:  "dataset",
		Usage: "Print the generated labeled training data",
		UsageText: `vitalrisk dataset --limit 20
   vitalrisk --format csv --seed 7 --samples 500 dataset > vitals.csv`,
		HideHelpCommand: true,
		Action:          cmdDataset,
		Flags: []urfave.Flag{
			limitFlag,
		},
	}

	csvHeader = []string{"heart_rate", "spo2", "activity_level", "risk"}
)

func cmdDataset(_ context.Context, cmd *urfave.Command) error {
	sc := getConfig(cmd).Scorer.Config()
	ds := risk.GenerateDataset(sc.Seed, sc.Samples)

	counts := ds.Counts()
	slog.Debug("dataset generated", "rows", len(ds), "seed", sc.Seed,
		"normal", counts[risk.Normal], "warning", counts[risk.Warning], "critical", counts[risk.Critical])

	if limit := cmd.Int(limitFlag.Name); limit > 0 && limit < len(ds) {
		ds = ds[:limit]
	}

	if outputFormat == formatCSV {
		return writeCSV(os.Stdout, ds)
	}

	if err := encode(ds); err != nil {
		return fmt.Errorf("error encoding dataset: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, ds risk.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range ds {
		rec := []string{
			formatFloat(r.HeartRate),
			formatFloat(r.SpO2),
			formatFloat(r.ActivityLevel),
			r.Label.String(),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
