package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/soapnote/pkg/domain/model"
	"github.com/secmon-lab/soapnote/pkg/usecase"
	"github.com/secmon-lab/soapnote/pkg/utils/errutil"
	"github.com/secmon-lab/soapnote/pkg/utils/safe"
)

type clinicalNoteResponse struct {
	PatientSummary string   `json:"patient_summary"`
	Subjective     []string `json:"subjective"`
	Objective      []string `json:"objective"`
	Assessment     string   `json:"assessment"`
	Plan           []string `json:"plan"`
}

type visitResponse struct {
	ID            string                `json:"id"`
	PatientID     string                `json:"patient_id"`
	Timestamp     time.Time             `json:"timestamp"`
	RawTranscript string                `json:"raw_transcript"`
	Status        string                `json:"status"`
	ClinicalNote  *clinicalNoteResponse `json:"clinical_note"`
	AudioURI      string                `json:"audio_uri,omitempty"`
	AudioMimeType string                `json:"audio_mime_type,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type timelineEntryResponse struct {
	VisitID   string    `json:"visit_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Latest    bool      `json:"latest"`
}

type bpReadingResponse struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Systolic  int       `json:"systolic"`
	Diastolic int       `json:"diastolic"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func toNoteResponse(n *model.ClinicalNote) *clinicalNoteResponse {
	if n == nil {
		return nil
	}
	return &clinicalNoteResponse{
		PatientSummary: n.Summary,
		Subjective:     nonNil(n.Subjective),
		Objective:      nonNil(n.Objective),
		Assessment:     n.Assessment,
		Plan:           nonNil(n.Plan),
	}
}

func toVisitResponse(v *model.Visit) *visitResponse {
	return &visitResponse{
		ID:            string(v.ID),
		PatientID:     v.PatientID,
		Timestamp:     v.Timestamp,
		RawTranscript: v.RawTranscript,
		Status:        v.Status.String(),
		ClinicalNote:  toNoteResponse(v.ClinicalNote),
		AudioURI:      v.AudioURI,
		AudioMimeType: v.AudioMimeType,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func toVisitResponses(visits []*model.Visit) []*visitResponse {
	resp := make([]*visitResponse, len(visits))
	for i, v := range visits {
		resp[i] = toVisitResponse(v)
	}
	return resp
}

func toTimelineResponses(entries []*model.TimelineEntry) []*timelineEntryResponse {
	resp := make([]*timelineEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = &timelineEntryResponse{
			VisitID:   string(e.VisitID),
			Timestamp: e.Timestamp,
			Status:    e.Status.String(),
			Title:     e.Title,
			Summary:   e.Summary,
			Latest:    e.Latest,
		}
	}
	return resp
}

func toBPReadingResponse(r *model.BPReading) *bpReadingResponse {
	if r == nil {
		return nil
	}
	return &bpReadingResponse{
		ID:        string(r.ID),
		PatientID: r.PatientID,
		Systolic:  r.Systolic,
		Diastolic: r.Diastolic,
		Timestamp: r.Timestamp,
	}
}

func toBPReadingResponses(readings []*model.BPReading) []*bpReadingResponse {
	resp := make([]*bpReadingResponse, len(readings))
	for i, r := range readings {
		resp[i] = toBPReadingResponse(r)
	}
	return resp
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

// writeError maps use case errors to a status code and an {ok:false} body.
// Only validation messages are echoed to the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, usecase.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, usecase.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, usecase.ErrStorageUnavailable):
		message = "storage unavailable"
	}

	errutil.Log(ctx, err, status)
	writeJSON(ctx, w, status, errorResponse{OK: false, Error: message})
}

// badRequest reports a malformed request body or query parameter
func badRequest(ctx context.Context, w http.ResponseWriter, err error, message string) {
	writeError(ctx, w, goerr.Wrap(usecase.ErrValidation, message, goerr.V("cause", err)))
}
