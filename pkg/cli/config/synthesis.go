package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/soapnote/pkg/service/synthesis"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Synthesis holds configuration for the note synthesis adapter
type Synthesis struct {
	timeout time.Duration
}

func (x *Synthesis) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "synthesis-timeout",
			Usage:       "Wall-clock limit of one note synthesis call",
			Category:    "Gemini",
			Value:       synthesis.DefaultTimeout,
			Sources:     cli.EnvVars("SOAPNOTE_SYNTHESIS_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

// Configure builds the synthesis service. A nil LLM client yields a nil
// service and every capture is finalized with the degraded note.
func (x *Synthesis) Configure(llmClient gollem.LLMClient, settings *Settings) (synthesis.Service, error) {
	if llmClient == nil {
		logging.Default().Warn("Gemini is not configured, visits will be finalized without synthesis")
		return nil, nil
	}

	opts := []synthesis.Option{
		synthesis.WithTimeout(x.timeout),
	}
	if settings != nil && settings.Synthesis.Rules != "" {
		opts = append(opts, synthesis.WithRules(settings.Synthesis.Rules))
	}

	svc, err := synthesis.New(llmClient, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create synthesis service")
	}
	return svc, nil
}
