package cli_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/soapnote/pkg/cli"
	"github.com/secmon-lab/soapnote/pkg/client"
	httpctrl "github.com/secmon-lab/soapnote/pkg/controller/http"
	"github.com/secmon-lab/soapnote/pkg/repository/memory"
	"github.com/secmon-lab/soapnote/pkg/usecase"
)

func TestGetIndexConfig(t *testing.T) {
	cfg := cli.GetIndexConfig("")
	gt.Array(t, cfg.Collections).Length(2).Required()
	gt.Value(t, cfg.Collections[0].Name).Equal("visits")
	gt.Array(t, cfg.Collections[0].Indexes).Length(4)
	gt.Value(t, cfg.Collections[1].Name).Equal("bp_readings")
	gt.Array(t, cfg.Collections[1].Indexes).Length(2)

	prefixed := cli.GetIndexConfig("staging")
	gt.Value(t, prefixed.Collections[0].Name).Equal("staging_visits")
	gt.Value(t, prefixed.Collections[1].Name).Equal("staging_bp_readings")
}

func TestReadTranscript(t *testing.T) {
	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "visit.txt")
		gt.NoError(t, os.WriteFile(path, []byte("Patient reports mild headache."), 0600)).Required()

		text, err := cli.ReadTranscript(path, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, text).Equal("Patient reports mild headache.")
	})

	t.Run("from stdin", func(t *testing.T) {
		text, err := cli.ReadTranscript("-", strings.NewReader("from stdin"))
		gt.NoError(t, err).Required()
		gt.Value(t, text).Equal("from stdin")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := cli.ReadTranscript(filepath.Join(t.TempDir(), "missing.txt"), nil)
		gt.Error(t, err)
	})
}

func TestPrintTimeline(t *testing.T) {
	var buf bytes.Buffer
	ts := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	cli.PrintTimeline(&buf, 3, []*client.TimelineEntry{
		{VisitID: "v2", Timestamp: ts, Status: "completed", Title: "Tension-type headache", Summary: "Mild headache", Latest: true},
		{VisitID: "v1", Timestamp: ts.Add(-24 * time.Hour), Status: "error", Title: "Analysis Failed", Summary: "Analysis failed due to an error."},
	})

	out := buf.String()
	gt.String(t, out).Contains("revision 3")
	gt.String(t, out).Contains("* 2024-01-02T09:00:00Z [completed] Tension-type headache: Mild headache")
	gt.String(t, out).Contains("  2024-01-01T09:00:00Z [error] Analysis Failed")
}

func TestRun_Capture(t *testing.T) {
	srv := httptest.NewServer(httpctrl.New(usecase.New(memory.New())))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "visit.txt")
	gt.NoError(t, os.WriteFile(path, []byte("Patient reports mild headache for two days."), 0600)).Required()

	err := cli.Run(context.Background(), []string{
		"soapnote",
		"--log-output", "stderr",
		"capture",
		"--server-url", srv.URL,
		"--patient-id", "p1",
		"--file", path,
	}, "test")
	gt.NoError(t, err).Required()

	rev, err := client.New(srv.URL).Revision(context.Background(), "p1")
	gt.NoError(t, err).Required()
	gt.Value(t, rev).Equal(int64(1))
}
