package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/cli/config"
	httpctrl "github.com/secmon-lab/soapnote/pkg/controller/http"
	"github.com/secmon-lab/soapnote/pkg/service/worker"
	"github.com/secmon-lab/soapnote/pkg/usecase"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
	"github.com/secmon-lab/soapnote/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var staleThreshold time.Duration
	var maxBodySize int64
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var synthesisCfg config.Synthesis
	var audioCfg config.Audio
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SOAPNOTE_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "stale-visit-threshold",
			Usage:       "Report visits still processing after this duration",
			Value:       worker.DefaultStaleThreshold,
			Sources:     cli.EnvVars("SOAPNOTE_STALE_VISIT_THRESHOLD"),
			Destination: &staleThreshold,
		},
		&cli.Int64Flag{
			Name:        "max-body-size",
			Usage:       "Maximum request body size in bytes",
			Value:       httpctrl.DefaultMaxBodySize,
			Sources:     cli.EnvVars("SOAPNOTE_MAX_BODY_SIZE"),
			Destination: &maxBodySize,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, synthesisCfg.Flags()...)
	flags = append(flags, audioCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini")
			}
			synthesisSvc, err := synthesisCfg.Configure(llmClient, settings)
			if err != nil {
				return err
			}

			audioStore, closeAudio, err := audioCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeAudio()

			ucOpts := []usecase.Option{
				usecase.WithTrendLimit(settings.Query.TrendLimit),
			}
			if synthesisSvc != nil {
				ucOpts = append(ucOpts, usecase.WithSynthesis(synthesisSvc))
				logging.Default().Info("Note synthesis enabled", "gemini", geminiCfg)
			}
			if audioStore != nil {
				ucOpts = append(ucOpts, usecase.WithAudioStore(audioStore))
			}
			uc := usecase.New(repo, ucOpts...)

			// An explicit flag wins over the file setting
			fileThreshold, err := settings.StaleThreshold()
			if err != nil {
				return err
			}
			if fileThreshold > 0 && !c.IsSet("stale-visit-threshold") {
				staleThreshold = fileThreshold
			}

			monitorOpts := []worker.MonitorOption{
				worker.WithThreshold(staleThreshold),
			}
			notifier, err := slackCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure slack")
			}
			if notifier != nil {
				monitorOpts = append(monitorOpts, worker.WithNotifier(notifier))
				logging.Default().Info("Slack stale visit alerts enabled", "slack", slackCfg)
			}

			monitor := worker.NewStaleVisitMonitor(repo, monitorOpts...)
			if err := monitor.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start stale visit monitor")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpctrl.WithMaxBodySize(maxBodySize)),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Wait for shutdown signal or server error
			select {
			case err := <-errCh:
				monitor.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				monitor.Stop()

				// Create shutdown context with timeout
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				// Attempt graceful shutdown
				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
