package safe

import (
	"context"
	"fmt"
	"io"

	"github.com/secmon-lab/soapnote/pkg/utils/logging"
)

// Close closes c and logs a failure with the closer's type. A nil closer
// is ignored.
func Close(ctx context.Context, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close resource",
			"resource", fmt.Sprintf("%T", c),
			"error", err)
	}
}

// Write writes a response body. The status line is already sent at this
// point, so a failure (usually a gone client) can only be logged.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if n, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write response",
			"written", n,
			"size", len(data),
			"error", err)
	}
}
