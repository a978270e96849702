package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/secmon-lab/soapnote/pkg/client"
	"github.com/urfave/cli/v3"
)

func cmdWatch() *cli.Command {
	var serverURL string
	var patientID string
	var interval time.Duration
	var limit int

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Print the patient timeline each time a visit is finalized",
		Flags: []cli.Flag{
			serverURLFlag(&serverURL),
			&cli.StringFlag{
				Name:        "patient-id",
				Usage:       "Patient to watch",
				Required:    true,
				Destination: &patientID,
			},
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "Revision polling interval",
				Value:       client.DefaultPollInterval,
				Destination: &interval,
			},
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "Maximum number of timeline entries (0: server default)",
				Destination: &limit,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			w := client.NewWatcher(client.New(serverURL), patientID,
				client.WithPollInterval(interval),
				client.WithTimelineLimit(limit),
			)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := c.Root().Writer
			return w.Run(ctx, func(ctx context.Context, revision int64, entries []*client.TimelineEntry) error {
				printTimeline(out, revision, entries)
				return nil
			})
		},
	}
}
