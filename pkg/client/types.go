package client

import "time"

// ClinicalNote mirrors the note object returned by the API
type ClinicalNote struct {
	PatientSummary string   `json:"patient_summary"`
	Subjective     []string `json:"subjective"`
	Objective      []string `json:"objective"`
	Assessment     string   `json:"assessment"`
	Plan           []string `json:"plan"`
}

type Visit struct {
	ID            string        `json:"id"`
	PatientID     string        `json:"patient_id"`
	Timestamp     time.Time     `json:"timestamp"`
	RawTranscript string        `json:"raw_transcript" masq:"secret"`
	Status        string        `json:"status"`
	ClinicalNote  *ClinicalNote `json:"clinical_note"`
	AudioURI      string        `json:"audio_uri,omitempty"`
	AudioMimeType string        `json:"audio_mime_type,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type TimelineEntry struct {
	VisitID   string    `json:"visit_id"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Latest    bool      `json:"latest"`
}

// CaptureRequest is the body of POST /visits. A zero Timestamp lets the
// server use the time of receipt.
type CaptureRequest struct {
	PatientID      string `json:"patient_id"`
	Timestamp      string `json:"timestamp,omitempty"`
	RawTranscript  string `json:"raw_transcript" masq:"secret"`
	AudioRecording string `json:"audio_recording,omitempty" masq:"secret"`
	AudioMimeType  string `json:"audio_mime_type,omitempty"`
}

type CaptureResponse struct {
	OK           bool          `json:"ok"`
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	ClinicalNote *ClinicalNote `json:"clinical_note"`
	Revision     *int64        `json:"revision,omitempty"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type timelineResponse struct {
	OK      bool             `json:"ok"`
	Entries []*TimelineEntry `json:"entries"`
}

type revisionResponse struct {
	OK       bool  `json:"ok"`
	Revision int64 `json:"revision"`
}

type visitResponse struct {
	OK    bool   `json:"ok"`
	Visit *Visit `json:"visit"`
}
