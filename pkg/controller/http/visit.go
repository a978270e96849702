package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/usecase"
)

type createVisitRequest struct {
	PatientID      string `json:"patient_id"`
	Timestamp      string `json:"timestamp"`
	RawTranscript  string `json:"raw_transcript" masq:"secret"`
	AudioRecording string `json:"audio_recording" masq:"secret"`
	AudioMimeType  string `json:"audio_mime_type"`
	// Status is accepted for compatibility and ignored; the server owns the state machine
	Status string `json:"status"`
}

type createVisitResponse struct {
	OK           bool                  `json:"ok"`
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	ClinicalNote *clinicalNoteResponse `json:"clinical_note"`
	Revision     *int64                `json:"revision,omitempty"`
}

type listVisitsResponse struct {
	OK       bool             `json:"ok"`
	Visits   []*visitResponse `json:"visits"`
	Revision *int64           `json:"revision,omitempty"`
}

func createVisitHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createVisitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(ctx, w, err, "invalid request body")
			return
		}

		timestamp, err := parseTimestamp(req.Timestamp)
		if err != nil {
			badRequest(ctx, w, err, "timestamp must be RFC 3339")
			return
		}

		recording, err := decodeAudio(req.AudioRecording)
		if err != nil {
			badRequest(ctx, w, err, "audio_recording must be base64 encoded")
			return
		}

		result, err := uc.Visit.Capture(ctx, usecase.CaptureInput{
			PatientID:     req.PatientID,
			Timestamp:     timestamp,
			RawTranscript: req.RawTranscript,
			Audio:         recording,
			AudioMimeType: req.AudioMimeType,
		})
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusCreated, createVisitResponse{
			OK:           true,
			ID:           string(result.Visit.ID),
			Status:       result.Visit.Status.String(),
			ClinicalNote: toNoteResponse(result.Visit.ClinicalNote),
			Revision:     result.Revision,
		})
	}
}

func listVisitsHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		patientID := strings.TrimSpace(r.URL.Query().Get("patient_id"))

		visits, err := uc.Visit.ListVisits(ctx, patientID)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		resp := listVisitsResponse{
			OK:     true,
			Visits: toVisitResponses(visits),
		}

		if patientID != "" {
			revision, err := uc.Visit.Revision(ctx, patientID)
			if err != nil {
				writeError(ctx, w, err)
				return
			}
			resp.Revision = &revision
		}

		writeJSON(ctx, w, http.StatusOK, resp)
	}
}

func getVisitHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := model.VisitID(chi.URLParam(r, "id"))

		visit, err := uc.Visit.GetVisit(ctx, id)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"ok":    true,
			"visit": toVisitResponse(visit),
		})
	}
}

func timelineHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			badRequest(ctx, w, err, "limit must be a positive integer")
			return
		}

		entries, err := uc.Visit.Timeline(ctx, r.URL.Query().Get("patient_id"), limit)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"ok":      true,
			"entries": toTimelineResponses(entries),
		})
	}
}

func revisionHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		revision, err := uc.Visit.Revision(ctx, r.URL.Query().Get("patient_id"))
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"ok":       true,
			"revision": revision,
		})
	}
}

func dashboardHandler(uc *usecase.UseCases) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dash, err := uc.Dashboard(ctx, chi.URLParam(r, "patient_id"))
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		writeJSON(ctx, w, http.StatusOK, map[string]any{
			"ok":         true,
			"patient_id": dash.PatientID,
			"visits":     toVisitResponses(dash.Visits),
			"timeline":   toTimelineResponses(dash.Timeline),
			"latest_bp":  toBPReadingResponse(dash.LatestBP),
			"revision":   dash.Revision,
		})
	}
}

// parseTimestamp accepts an empty value (meaning now) or RFC 3339
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid timestamp", goerr.V("timestamp", value))
	}
	return ts, nil
}

// decodeAudio decodes standard base64, optionally wrapped in a data URL
func decodeAudio(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	if strings.HasPrefix(value, "data:") {
		if _, payload, ok := strings.Cut(value, ","); ok {
			value = payload
		}
	}

	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid base64 audio")
	}
	return data, nil
}

// parseLimit returns 0 (use default) for an empty value
func parseLimit(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit <= 0 {
		return 0, goerr.New("invalid limit", goerr.V("limit", value))
	}
	return limit, nil
}
