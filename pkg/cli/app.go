package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/vitalrisk/pkg/config"
	"github.com/mchmarny/vitalrisk/pkg/data"
	"github.com/mchmarny/vitalrisk/pkg/logging"
	"github.com/mchmarny/vitalrisk/pkg/risk"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "vitalrisk"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
	formatCSV  = "csv"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	debugFlag = &urfave.BoolFlag{
		Name:    "debug",
		Usage:   "Prints verbose logs (optional, default: false)",
		Sources: urfave.EnvVars("VITALRISK_DEBUG"),
	}

	logFormatFlag = &urfave.StringFlag{
		Name:  "log-format",
		Usage: "Log format [text, json]",
		Value: logging.FormatText,
	}

	dbFilePathFlag = &urfave.StringFlag{
		Name:    "db",
		Usage:   "Path to the Sqlite database file or a postgres:// URL",
		Sources: urfave.EnvVars("VITALRISK_DB"),
	}

	configDirFlag = &urfave.StringFlag{
		Name:    "config",
		Usage:   fmt.Sprintf("Directory holding config.yaml (default: $HOME/.%s)", appName),
		Sources: urfave.EnvVars("VITALRISK_CONFIG"),
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml, csv (dataset only)]",
		Value: formatJSON,
	}

	seedFlag = &urfave.IntFlag{
		Name:  "seed",
		Usage: "Seed for the generated training data (overrides config)",
	}

	samplesFlag = &urfave.IntFlag{
		Name:  "samples",
		Usage: "Number of generated training rows (overrides config)",
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false, logging.FormatText)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DBPath   string
	Debug    bool
	DB       *sql.DB
	Settings *config.Config
	Scorer   *risk.Scorer
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Vitals risk scoring (Normal, Warning, Critical) from heart rate, SpO2 and activity",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			debugFlag,
			logFormatFlag,
			dbFilePathFlag,
			configDirFlag,
			formatFlag,
			seedFlag,
			samplesFlag,
		},
		Commands: []*urfave.Command{
			trainCmd,
			predictCmd,
			datasetCmd,
			historyCmd,
			serverCmd,
			resetCmd,
		},
		Before: setup,
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func setup(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	debug := cmd.Bool(debugFlag.Name)
	initLogging(debug, cmd.String(logFormatFlag.Name))

	switch f := strings.ToLower(cmd.String(formatFlag.Name)); f {
	case formatYAML, "yml":
		outputFormat = formatYAML
	case formatCSV:
		outputFormat = formatCSV
	default:
		outputFormat = formatJSON
	}

	dir := cmd.String(configDirFlag.Name)
	if dir == "" {
		dir = getHomeDir()
	}

	settings, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("reading config: %w", err)
	}
	if cmd.IsSet(seedFlag.Name) {
		settings.Seed = uint64(cmd.Int(seedFlag.Name))
	}
	if cmd.IsSet(samplesFlag.Name) {
		settings.Samples = cmd.Int(samplesFlag.Name)
	}
	if err := settings.Validate(); err != nil {
		return ctx, fmt.Errorf("invalid settings: %w", err)
	}

	dbPath := cmd.String(dbFilePathFlag.Name)
	if dbPath == "" {
		dbPath = filepath.Join(dir, data.DataFileName)
	}

	if err := data.Init(dbPath); err != nil {
		return ctx, fmt.Errorf("initializing database: %w", err)
	}

	db, err := data.GetDB(dbPath)
	if err != nil {
		return ctx, fmt.Errorf("opening database: %w", err)
	}

	cmd.Root().Metadata[appConfigKey] = &appConfig{
		DBPath:   dbPath,
		Debug:    debug,
		DB:       db,
		Settings: settings,
		Scorer: risk.NewScorer(
			risk.WithConfig(settings.ScorerConfig()),
			risk.WithObserver(recordTrainingRun(db)),
		),
	}
	return ctx, nil
}

func initLogging(debug bool, format string) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultLogger(level, format)
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	slog.Debug("app dir", "path", dir, "created", created)
	return dir
}

func encode(v any) error {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(os.Stdout).Encode(v)
	}
	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
