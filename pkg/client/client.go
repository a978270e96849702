package client

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultTimeout    = 90 * time.Second
	DefaultRetryCount = 3
)

var (
	// ErrRequestFailed is returned when the server answers with a non-2xx status
	ErrRequestFailed = goerr.New("api request failed")
	// ErrNotFound is returned for a 404 response
	ErrNotFound = goerr.New("resource not found")
)

// Client talks to the visit API over HTTP
type Client struct {
	http *resty.Client
}

type Option func(*resty.Client)

// WithTimeout sets the per-request timeout. Capture waits for synthesis, so
// the default is generous.
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

// WithRetryCount sets how many times an idempotent request is retried on a
// transport error
func WithRetryCount(n int) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(n)
	}
}

func New(baseURL string, opts ...Option) *Client {
	hc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetRetryCount(DefaultRetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Capture creates a visit; retrying it could store a duplicate
			if r != nil && r.Request != nil && r.Request.Method == http.MethodPost {
				return false
			}
			return err != nil
		})

	for _, opt := range opts {
		opt(hc)
	}

	return &Client{http: hc}
}

// CaptureVisit submits a transcript and waits for the finalized visit
func (c *Client) CaptureVisit(ctx context.Context, req *CaptureRequest) (*CaptureResponse, error) {
	var result CaptureResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&errorResponse{}).
		Post("/visits")
	if err := checkResponse(resp, err, "/visits"); err != nil {
		return nil, goerr.Wrap(err, "failed to capture visit", goerr.V("patient_id", req.PatientID))
	}

	return &result, nil
}

// GetVisit fetches one visit by ID
func (c *Client) GetVisit(ctx context.Context, id string) (*Visit, error) {
	var result visitResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&result).
		SetError(&errorResponse{}).
		Get("/visits/{id}")
	if err := checkResponse(resp, err, "/visits/{id}"); err != nil {
		return nil, goerr.Wrap(err, "failed to get visit", goerr.V("visit_id", id))
	}

	return result.Visit, nil
}

// Timeline fetches the display timeline of a patient, newest first. A
// non-positive limit uses the server default.
func (c *Client) Timeline(ctx context.Context, patientID string, limit int) ([]*TimelineEntry, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("patient_id", patientID)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	var result timelineResponse
	resp, err := req.
		SetResult(&result).
		SetError(&errorResponse{}).
		Get("/visits/timeline")
	if err := checkResponse(resp, err, "/visits/timeline"); err != nil {
		return nil, goerr.Wrap(err, "failed to get timeline", goerr.V("patient_id", patientID))
	}

	return result.Entries, nil
}

// Revision returns the number of finalized visits of a patient
func (c *Client) Revision(ctx context.Context, patientID string) (int64, error) {
	var result revisionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("patient_id", patientID).
		SetResult(&result).
		SetError(&errorResponse{}).
		Get("/visits/revision")
	if err := checkResponse(resp, err, "/visits/revision"); err != nil {
		return 0, goerr.Wrap(err, "failed to get revision", goerr.V("patient_id", patientID))
	}

	return result.Revision, nil
}

func checkResponse(resp *resty.Response, err error, path string) error {
	if err != nil {
		return goerr.Wrap(err, "request failed", goerr.V("path", path))
	}

	if !resp.IsError() {
		return nil
	}

	var message string
	if e, ok := resp.Error().(*errorResponse); ok {
		message = e.Error
	}

	base := ErrRequestFailed
	if resp.StatusCode() == http.StatusNotFound {
		base = ErrNotFound
	}
	return goerr.Wrap(base, "unexpected status",
		goerr.V("path", path),
		goerr.V("status", resp.StatusCode()),
		goerr.V("error", message))
}
