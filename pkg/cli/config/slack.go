package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/service/slack"
	"github.com/secmon-lab/soapnote/pkg/service/worker"
	"github.com/urfave/cli/v3"
)

// Slack holds configuration for operator alerts
type Slack struct {
	botToken     string
	alertChannel string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for stale visit alerts)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("SOAPNOTE_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-alert-channel",
			Usage:       "Slack channel ID that receives stale visit alerts",
			Category:    "Slack",
			Destination: &x.alertChannel,
			Sources:     cli.EnvVars("SOAPNOTE_SLACK_ALERT_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("alert-channel", x.alertChannel),
	)
}

// IsConfigured checks if both the token and the channel are set
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.alertChannel != ""
}

// Configure returns a notifier posting stale visit alerts, or nil when
// Slack is not configured.
func (x *Slack) Configure() (worker.Notifier, error) {
	if x.botToken == "" && x.alertChannel == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.Wrap(ErrMissingFlag, "--slack-bot-token and --slack-alert-channel must be set together",
			goerr.V(FlagKey, "slack-alert-channel"))
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}

	return worker.NewSlackNotifier(svc, x.alertChannel), nil
}
