package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mchmarny/vitalrisk/pkg/data"
	"github.com/mchmarny/vitalrisk/pkg/net"
	"github.com/mchmarny/vitalrisk/pkg/risk"
	urfave "github.com/urfave/cli/v3"
)

var (
	riskFilterFlag = &urfave.StringFlag{
		Name:  "risk",
		Usage: "Only list predictions with this label [Normal, Warning, Critical]",
		Local: true,
	}

	historyLimitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of records to list",
		Value: data.PredictionLimitDefault,
		Local: true,
	}

	historyServerFlag = &urfave.StringFlag{
		Name:  "server",
		Usage: "List predictions recorded by a running vitalrisk server instead of the local store",
		Local: true,
	}

	runsLimitFlag = &urfave.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of runs to list",
		Value: data.PredictionLimitDefault,
	}

	historyCmd = &urfave.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List stored predictions (newest first), training runs or store state",
		UsageText: `vitalrisk history --risk critical --limit 10
   vitalrisk history --server http://127.0.0.1:8080
   vitalrisk history runs
   vitalrisk history state`,
		HideHelpCommand: true,
		Flags: []urfave.Flag{
			historyLimitFlag,
			riskFilterFlag,
			historyServerFlag,
		},
		Action: cmdHistoryPredictions,
		Commands: []*urfave.Command{
			{
				Name:   "runs",
				Usage:  "List recorded training runs, newest first",
				Action: cmdHistoryRuns,
				Flags: []urfave.Flag{
					runsLimitFlag,
				},
			},
			{
				Name:   "state",
				Usage:  "Show store row counts",
				Action: cmdHistoryState,
			},
		},
	}
)

func cmdHistoryPredictions(ctx context.Context, cmd *urfave.Command) error {
	var filter *string
	if v := cmd.String(riskFilterFlag.Name); v != "" {
		l, err := risk.ParseLabel(v)
		if err != nil {
			return fmt.Errorf("invalid --%s: %w", riskFilterFlag.Name, err)
		}
		s := l.String()
		filter = &s
	}

	limit := cmd.Int(historyLimitFlag.Name)

	if u := cmd.String(historyServerFlag.Name); u != "" {
		list, err := remotePredictions(ctx, u, filter, limit)
		if err != nil {
			return fmt.Errorf("getting remote predictions: %w", err)
		}
		return encode(list)
	}

	list, err := data.GetPredictions(getConfig(cmd).DB, filter, limit)
	if err != nil {
		return fmt.Errorf("getting predictions: %w", err)
	}
	return encode(list)
}

func remotePredictions(ctx context.Context, baseURL string, filter *string, limit int) ([]*data.Prediction, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if filter != nil {
		q.Set("risk", *filter)
	}

	u := strings.TrimSuffix(baseURL, "/") + "/data/predictions"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	list := make([]*data.Prediction, 0)
	if err := net.GetJSON(ctx, u, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func cmdHistoryRuns(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	list, err := data.GetTrainingRuns(cfg.DB, cmd.Int(runsLimitFlag.Name))
	if err != nil {
		return fmt.Errorf("getting training runs: %w", err)
	}
	return encode(list)
}

func cmdHistoryState(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	state, err := data.GetDataState(cfg.DB)
	if err != nil {
		return fmt.Errorf("getting data state: %w", err)
	}
	return encode(state)
}
