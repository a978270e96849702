package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/client"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serverURLFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "server-url",
		Usage:       "Base URL of a running soapnote server",
		Value:       "http://localhost:8080",
		Sources:     cli.EnvVars("SOAPNOTE_SERVER_URL"),
		Destination: dst,
	}
}

func cmdCapture() *cli.Command {
	var serverURL string
	var patientID string
	var file string
	var timestamp string
	var timeout time.Duration

	return &cli.Command{
		Name:    "capture",
		Aliases: []string{"c"},
		Usage:   "Submit a visit transcript and print the synthesized note",
		Flags: []cli.Flag{
			serverURLFlag(&serverURL),
			&cli.StringFlag{
				Name:        "patient-id",
				Usage:       "Patient the visit belongs to",
				Required:    true,
				Destination: &patientID,
			},
			&cli.StringFlag{
				Name:        "file",
				Usage:       "Transcript file ('-' reads stdin)",
				Value:       "-",
				Destination: &file,
			},
			&cli.StringFlag{
				Name:        "timestamp",
				Usage:       "Visit time in RFC 3339 (default: time of receipt)",
				Destination: &timestamp,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "Request timeout including synthesis",
				Value:       client.DefaultTimeout,
				Destination: &timeout,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			transcript, err := readTranscript(file, c.Root().Reader)
			if err != nil {
				return err
			}

			cl := client.New(serverURL, client.WithTimeout(timeout))
			resp, err := cl.CaptureVisit(ctx, &client.CaptureRequest{
				PatientID:     patientID,
				Timestamp:     timestamp,
				RawTranscript: transcript,
			})
			if err != nil {
				return err
			}

			attrs := []any{"id", resp.ID, "status", resp.Status}
			if resp.Revision != nil {
				attrs = append(attrs, "revision", *resp.Revision)
			}
			logging.Default().Info("Visit captured", attrs...)

			enc := json.NewEncoder(c.Root().Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return goerr.Wrap(err, "failed to write result")
			}
			return nil
		},
	}
}

func readTranscript(file string, stdin io.Reader) (string, error) {
	if file == "-" || file == "" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", goerr.Wrap(err, "failed to read transcript from stdin")
		}
		return string(data), nil
	}

	// #nosec G304 - path is provided by CLI argument
	data, err := os.ReadFile(file)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read transcript file", goerr.V("file", file))
	}
	return string(data), nil
}

func printTimeline(w io.Writer, revision int64, entries []*client.TimelineEntry) {
	_, _ = fmt.Fprintf(w, "revision %d\n", revision)
	for _, e := range entries {
		marker := " "
		if e.Latest {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %s [%s] %s: %s\n",
			marker, e.Timestamp.Format(time.RFC3339), e.Status, e.Title, e.Summary)
	}
}
