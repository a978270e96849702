package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/service/audio"
	"github.com/secmon-lab/soapnote/pkg/utils/logging"
	"github.com/secmon-lab/soapnote/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// Audio holds configuration for the visit recording archive
type Audio struct {
	bucket string
	prefix string
}

func (x *Audio) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "audio-bucket",
			Usage:       "Cloud Storage bucket for visit recordings ('memory' keeps them in process)",
			Category:    "Audio",
			Sources:     cli.EnvVars("SOAPNOTE_AUDIO_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "audio-prefix",
			Usage:       "Object name prefix for visit recordings",
			Category:    "Audio",
			Value:       audio.DefaultObjectPrefix,
			Sources:     cli.EnvVars("SOAPNOTE_AUDIO_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

// Configure returns the audio store and a closer. A nil store means
// recordings sent by clients are ignored.
func (x *Audio) Configure(ctx context.Context) (audio.Store, func(), error) {
	noop := func() {}

	switch x.bucket {
	case "":
		logging.Default().Info("Audio archive disabled")
		return nil, noop, nil

	case "memory":
		logging.Default().Info("Using in-memory audio archive (development mode)")
		return audio.NewMemory(), noop, nil

	default:
		store, err := audio.NewGCS(ctx, x.bucket, audio.WithObjectPrefix(x.prefix))
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to initialize audio archive", goerr.V("bucket", x.bucket))
		}
		logging.Default().Info("Using Cloud Storage audio archive", "bucket", x.bucket, "prefix", x.prefix)

		return store, func() { safe.Close(ctx, store) }, nil
	}
}
