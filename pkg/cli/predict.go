package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mchmarny/vitalrisk/pkg/data"
	"github.com/mchmarny/vitalrisk/pkg/net"
	"github.com/mchmarny/vitalrisk/pkg/risk"
	urfave "github.com/urfave/cli/v3"
)

var (
	heartRateFlag = &urfave.FloatFlag{
		Name:     "heart-rate",
		Aliases:  []string{"hr"},
		Usage:    "Heart rate (beats/min)",
		Required: true,
	}

	spo2Flag = &urfave.FloatFlag{
		Name:     "spo2",
		Usage:    "Blood oxygen saturation (percent)",
		Required: true,
	}

	activityFlag = &urfave.FloatFlag{
		Name:     "activity",
		Usage:    "Activity level (percent)",
		Required: true,
	}

	serverURLFlag = &urfave.StringFlag{
		Name:  "server",
		Usage: "Score against a running vitalrisk server (e.g. http://127.0.0.1:8080) instead of locally",
	}

	predictCmd = &urfave.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Classify a single vitals reading as Normal, Warning or Critical",
		UsageText: `vitalrisk predict --hr 105 --spo2 97 --activity 40
   vitalrisk predict --hr 80 --spo2 91 --activity 10 --server http://127.0.0.1:8080`,
		HideHelpCommand: true,
		Action:          cmdPredict,
		Flags: []urfave.Flag{
			heartRateFlag,
			spo2Flag,
			activityFlag,
			serverURLFlag,
		},
	}
)

// PredictResult is the scoring response shared by the CLI and the API.
type PredictResult struct {
	RiskLevel     risk.Label             `json:"risk_level" yaml:"riskLevel"`
	Alert         bool                   `json:"alert" yaml:"alert"`
	Probabilities map[risk.Label]float64 `json:"probabilities,omitempty" yaml:"probabilities,omitempty"`
}

// newPredictResult expects the scorer to be trained already.
func newPredictResult(scorer *risk.Scorer, obs risk.Observation, l risk.Label) *PredictResult {
	res := &PredictResult{RiskLevel: l, Alert: l.Alert()}
	if m := scorer.Model(); m != nil {
		p := m.Probabilities(obs)
		res.Probabilities = make(map[risk.Label]float64, len(p))
		for _, label := range risk.Labels {
			res.Probabilities[label] = p[label]
		}
	}
	return res
}

// predictRequest requires every field to be present; values themselves
// are not range checked.
type predictRequest struct {
	HeartRate     *float64 `json:"heart_rate"`
	SpO2          *float64 `json:"spo2"`
	ActivityLevel *float64 `json:"activity_level"`
}

func (r *predictRequest) observation() (risk.Observation, error) {
	var missing []string
	if r.HeartRate == nil {
		missing = append(missing, "heart_rate")
	}
	if r.SpO2 == nil {
		missing = append(missing, "spo2")
	}
	if r.ActivityLevel == nil {
		missing = append(missing, "activity_level")
	}
	if len(missing) > 0 {
		return risk.Observation{}, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	return risk.Observation{
		HeartRate:     *r.HeartRate,
		SpO2:          *r.SpO2,
		ActivityLevel: *r.ActivityLevel,
	}, nil
}

func cmdPredict(ctx context.Context, cmd *urfave.Command) error {
	obs := risk.Observation{
		HeartRate:     cmd.Float(heartRateFlag.Name),
		SpO2:          cmd.Float(spo2Flag.Name),
		ActivityLevel: cmd.Float(activityFlag.Name),
	}

	if u := cmd.String(serverURLFlag.Name); u != "" {
		res, err := predictRemote(ctx, u, obs)
		if err != nil {
			return fmt.Errorf("scoring remotely: %w", err)
		}
		return encode(res)
	}

	cfg := getConfig(cmd)
	res, err := scoreAndRecord(cfg.Scorer, cfg.DB, obs, data.SourceCLI)
	if err != nil {
		return fmt.Errorf("scoring observation: %w", err)
	}

	if err := encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}
	return nil
}

func predictRemote(ctx context.Context, baseURL string, obs risk.Observation) (*PredictResult, error) {
	u := strings.TrimSuffix(baseURL, "/") + "/predict"
	slog.Debug("remote predict", "url", u)

	var res PredictResult
	if err := net.PostJSON(ctx, u, obs, &res); err != nil {
		switch {
		case net.IsStatus(err, http.StatusServiceUnavailable):
			return nil, fmt.Errorf("server could not train its risk model: %w", err)
		case net.IsStatus(err, http.StatusBadRequest):
			return nil, fmt.Errorf("server rejected the observation: %w", err)
		}
		return nil, err
	}
	return &res, nil
}

// scoreAndRecord classifies the observation and appends it to the store.
// A failed write is logged; the score is still returned.
func scoreAndRecord(scorer *risk.Scorer, db *sql.DB, obs risk.Observation, source string) (*PredictResult, error) {
	l, err := scorer.Predict(obs)
	if err != nil {
		return nil, err
	}

	p := toPrediction(obs, l, source)
	if err := data.SavePrediction(db, p); err != nil {
		slog.Error("failed to record prediction", "error", err)
	}

	slog.Debug("observation scored", "risk", l, "source", source)
	return newPredictResult(scorer, obs, l), nil
}

func toPrediction(obs risk.Observation, l risk.Label, source string) *data.Prediction {
	return &data.Prediction{
		HeartRate:     obs.HeartRate,
		SpO2:          obs.SpO2,
		ActivityLevel: obs.ActivityLevel,
		Risk:          l.String(),
		Source:        source,
	}
}

func isTrainingError(err error) bool {
	var te *risk.TrainingError
	return errors.As(err, &te)
}
