package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/usecase"
)

// flexInt accepts a JSON number or a numeric string
type flexInt struct {
	value int
	set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := strings.Trim(string(data), `"`)
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return goerr.Wrap(err, "not a number", goerr.V("value", string(data)))
	}
	f.value = int(n)
	f.set = true
	return nil
}

type createBPReadingRequest struct {
	PatientID string  `json:"patient_id"`
	Systolic  flexInt `json:"systolic"`
	Diastolic flexInt `json:"diastolic"`
	Timestamp string  `json:"timestamp"`
}

func createBPReadingHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createBPReadingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(ctx, w, err, "invalid request body")
			return
		}
		if !req.Systolic.set || !req.Diastolic.set {
			badRequest(ctx, w, nil, "patient_id, systolic, and diastolic are required")
			return
		}

		timestamp, err := parseTimestamp(req.Timestamp)
		if err != nil {
			badRequest(ctx, w, err, "timestamp must be RFC 3339")
			return
		}

		reading, err := uc.BPReading.Record(ctx, req.PatientID, req.Systolic.value, req.Diastolic.value, timestamp)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusCreated, map[string]any{
			"ok":      true,
			"reading": toBPReadingResponse(reading),
		})
	}
}

func latestBPReadingHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		reading, err := uc.BPReading.Latest(ctx, r.URL.Query().Get("patient_id"))
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"ok":      true,
			"reading": toBPReadingResponse(reading),
		})
	}
}

func bpTrendHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			badRequest(ctx, w, err, "limit must be a positive integer")
			return
		}

		readings, err := uc.BPReading.Trend(ctx, r.URL.Query().Get("patient_id"), limit)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"ok":       true,
			"readings": toBPReadingResponses(readings),
		})
	}
}
