package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mchmarny/vitalrisk/pkg/data"
	"github.com/mchmarny/vitalrisk/pkg/risk"
	urfave "github.com/urfave/cli/v3"
)

var trainCmd = &urfave.Command{
	Name:  "train",
	Usage: "Fit the risk model on generated data and print the held-out evaluation",
	UsageText: `vitalrisk train                            # train with config settings
   vitalrisk --seed 7 --samples 5000 train    # override generated data`,
	HideHelpCommand: true,
	Action:          cmdTrain,
}

func cmdTrain(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	rep, err := cfg.Scorer.Train()
	if err != nil {
		return fmt.Errorf("training risk model: %w", err)
	}

	if err := encode(rep); err != nil {
		return fmt.Errorf("error encoding report: %w", err)
	}
	return nil
}

// recordTrainingRun persists each successful fit. Store failures are
// logged, the fitted model stays in use.
func recordTrainingRun(db *sql.DB) func(*risk.Report) {
	return func(rep *risk.Report) {
		run := &data.TrainingRun{
			Seed:       int64(rep.Seed), //nolint:gosec // seeds are small config values
			Samples:    rep.Samples,
			TrainSize:  rep.TrainSize,
			TestSize:   rep.TestSize,
			Accuracy:   rep.Accuracy,
			DurationMS: rep.Duration.Milliseconds(),
		}
		if err := data.SaveTrainingRun(db, run); err != nil {
			slog.Error("failed to record training run", "error", err)
			return
		}
		slog.Debug("training run recorded", "id", run.ID)
	}
}
