package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mchmarny/vitalrisk/pkg/risk"
	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 30
	serverMaxHeaderBytes      = 20
	serverHostDefault         = "127.0.0.1"
)

var (
	portFlag = &urfave.IntFlag{
		Name:  "port",
		Usage: "Port on which the server will listen (default: config port)",
	}

	hostFlag = &urfave.StringFlag{
		Name:  "host",
		Usage: "Address on which the server will listen",
		Value: serverHostDefault,
	}

	lazyFlag = &urfave.BoolFlag{
		Name:  "lazy",
		Usage: "Defer model training to the first prediction",
	}

	serverCmd = &urfave.Command{
		Name:            "server",
		Aliases:         []string{"serve"},
		Usage:           "Start the prediction HTTP API",
		HideHelpCommand: true,
		Action:          cmdStartServer,
		Flags: []urfave.Flag{
			portFlag,
			hostFlag,
			lazyFlag,
		},
	}
)

func cmdStartServer(ctx context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)

	port := cfg.Settings.Port
	if cmd.IsSet(portFlag.Name) {
		port = cmd.Int(portFlag.Name)
	}
	address := fmt.Sprintf("%s:%d", cmd.String(hostFlag.Name), port)

	if !cmd.Bool(lazyFlag.Name) {
		if _, err := cfg.Scorer.Train(); err != nil {
			return fmt.Errorf("training risk model: %w", err)
		}
	}

	sc := cfg.Scorer.Config()
	stream := risk.GenerateDataset(sc.Seed, sc.Samples)

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(cfg.Scorer, cfg.DB, stream),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, s)
}

// serve runs s until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, s *http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", "address", "http://"+s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
		defer cancel()

		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error shutting down server: %w", err)
		}
		slog.Info("server stopped")
		return nil
	})

	return g.Wait()
}

func makeRouter(scorer *risk.Scorer, db *sql.DB, stream risk.Dataset) *http.ServeMux {
	mux := http.NewServeMux()

	// Scoring API
	mux.HandleFunc("POST /predict", predictAPIHandler(scorer, db))
	mux.HandleFunc("POST /predict/batch", batchPredictAPIHandler(scorer, db))

	// Data API
	mux.HandleFunc("GET /data/stream", streamAPIHandler(stream))
	mux.HandleFunc("GET /data/predictions", predictionsAPIHandler(db))
	mux.HandleFunc("GET /data/runs", runsAPIHandler(db))
	mux.HandleFunc("GET /data/state", stateAPIHandler(db))

	mux.HandleFunc("GET /healthz", healthAPIHandler(scorer))

	return mux
}
