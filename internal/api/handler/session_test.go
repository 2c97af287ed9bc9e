package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kiranshivaraju/ytblog/internal/blogapi"
	"github.com/kiranshivaraju/ytblog/internal/lifecycle"
	"github.com/kiranshivaraju/ytblog/internal/submit"
	"github.com/kiranshivaraju/ytblog/pkg/models"
)

// --- mock Submitter ---

type mockSubmitter struct {
	submitFn func(req models.GenerationRequest) (string, error)
	emailFn  func(email string) (*models.EmailAck, error)
}

func (m *mockSubmitter) Submit(_ context.Context, req models.GenerationRequest) (string, error) {
	return m.submitFn(req)
}

func (m *mockSubmitter) SendEmail(_ context.Context, email string) (*models.EmailAck, error) {
	return m.emailFn(email)
}

// --- mock Session ---

type mockSession struct {
	state  lifecycle.State
	resets int
}

func (m *mockSession) State() lifecycle.State { return m.state }

func (m *mockSession) Reset() {
	m.resets++
	m.state = lifecycle.State{Phase: lifecycle.PhaseIdle}
}

func succeededSession() *mockSession {
	return &mockSession{state: lifecycle.State{
		Phase:    lifecycle.PhaseSucceeded,
		JobID:    "job-1",
		Status:   models.JobStatusCompleted,
		Progress: 100,
		Document: &models.BlogDocument{Title: "Intro to Testing", MarkdownContent: "# Intro to Testing\n\nBody."},
	}}
}

// --- helpers ---

func jsonReq(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	r := httptest.NewRequest(method, path, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func parseData(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) map[string]any {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("expected %d, got %d: %s", wantStatus, rec.Code, rec.Body.String())
	}
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env.Data
}

func parseErr(t *testing.T, rec *httptest.ResponseRecorder) (int, string, string) {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return rec.Code, env.Error.Code, env.Error.Message
}

// --- generate ---

func TestGenerateHandler_Accepted(t *testing.T) {
	var captured models.GenerationRequest
	h := NewGenerateHandler(&mockSubmitter{submitFn: func(req models.GenerationRequest) (string, error) {
		captured = req
		return "abc-123", nil
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/generate", map[string]string{
		"channel_name": "@freecodecamp",
		"video_title":  "Intro to Testing",
	}))

	data := parseData(t, rec, http.StatusAccepted)
	if data["job_id"] != "abc-123" {
		t.Errorf("unexpected job_id: %v", data["job_id"])
	}
	if captured.ChannelName != "@freecodecamp" || captured.VideoTitle != "Intro to Testing" {
		t.Errorf("unexpected request: %+v", captured)
	}
	if captured.Email != "" {
		t.Errorf("expected no email, got %q", captured.Email)
	}
}

func TestGenerateHandler_InvalidJSON(t *testing.T) {
	h := NewGenerateHandler(&mockSubmitter{})
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader("{not json"))

	h.ServeHTTP(rec, r)

	code, errCode, _ := parseErr(t, rec)
	if code != http.StatusBadRequest || errCode != "INVALID_REQUEST" {
		t.Errorf("expected 400 INVALID_REQUEST, got %d %s", code, errCode)
	}
}

func TestGenerateHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
		wantMsg  string
	}{
		{
			name:     "validation",
			err:      &submit.ValidationError{Field: "channel_name", Message: "channel name is required"},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
			wantMsg:  "channel name is required",
		},
		{
			name:     "in flight",
			err:      submit.ErrSubmissionInFlight,
			wantCode: http.StatusConflict,
			wantErr:  "SUBMISSION_IN_FLIGHT",
		},
		{
			name: "server message",
			err: &submit.SubmissionError{Message: "Channel not found", Err: &blogapi.TransportError{
				Op: "create job", StatusCode: 404, Message: "Channel not found", Err: blogapi.ErrUnexpectedStatus,
			}},
			wantCode: http.StatusBadGateway,
			wantErr:  "SUBMISSION_FAILED",
			wantMsg:  "Channel not found",
		},
		{
			name:     "fallback message",
			err:      &submit.SubmissionError{Message: submit.MessageSubmitFailed, Err: blogapi.ErrUnreachable},
			wantCode: http.StatusBadGateway,
			wantErr:  "SUBMISSION_FAILED",
			wantMsg:  "Failed to start generation",
		},
		{
			name:     "unexpected",
			err:      errors.New("tracking job: poller is closed"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "INTERNAL_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewGenerateHandler(&mockSubmitter{submitFn: func(models.GenerationRequest) (string, error) {
				return "", tt.err
			}})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/generate", map[string]string{}))

			code, errCode, msg := parseErr(t, rec)
			if code != tt.wantCode || errCode != tt.wantErr {
				t.Errorf("expected %d %s, got %d %s", tt.wantCode, tt.wantErr, code, errCode)
			}
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, msg)
			}
		})
	}
}

// --- session ---

func TestSessionHandler_ReturnsState(t *testing.T) {
	s := &mockSession{state: lifecycle.State{
		Phase:         lifecycle.PhasePolling,
		JobID:         "job-1",
		Status:        models.JobStatusProcessing,
		Progress:      45,
		StatusMessage: "Status: processing... 45%",
	}}
	rec := httptest.NewRecorder()

	NewSessionHandler(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	data := parseData(t, rec, http.StatusOK)
	if data["phase"] != "polling" {
		t.Errorf("unexpected phase: %v", data["phase"])
	}
	if data["progress"] != float64(45) {
		t.Errorf("unexpected progress: %v", data["progress"])
	}
	if data["status_message"] != "Status: processing... 45%" {
		t.Errorf("unexpected status_message: %v", data["status_message"])
	}
	if _, ok := data["document"]; ok {
		t.Error("document should be omitted while polling")
	}
}

func TestResetHandler(t *testing.T) {
	s := succeededSession()
	rec := httptest.NewRecorder()

	NewResetHandler(s).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/session/reset", nil))

	data := parseData(t, rec, http.StatusOK)
	if s.resets != 1 {
		t.Errorf("expected 1 reset, got %d", s.resets)
	}
	if data["phase"] != "idle" {
		t.Errorf("unexpected phase: %v", data["phase"])
	}
}

// --- send email ---

func TestSendEmailHandler_Success(t *testing.T) {
	var captured string
	h := NewSendEmailHandler(&mockSubmitter{emailFn: func(email string) (*models.EmailAck, error) {
		captured = email
		return &models.EmailAck{Message: "Email sent"}, nil
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/send-email", map[string]string{"email": "reader@example.com"}))

	data := parseData(t, rec, http.StatusOK)
	if captured != "reader@example.com" {
		t.Errorf("unexpected email: %q", captured)
	}
	if data["sent"] != true || data["message"] != "Email sent" {
		t.Errorf("unexpected body: %v", data)
	}
}

func TestSendEmailHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"no completed job", submit.ErrNoCompletedJob, http.StatusConflict, "NO_COMPLETED_JOB"},
		{"validation", &submit.ValidationError{Field: "email", Message: "email is required"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"backend", &submit.EmailError{JobID: "job-1", Message: submit.MessageEmailFailed, Err: blogapi.ErrTimeout}, http.StatusBadGateway, "EMAIL_FAILED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSendEmailHandler(&mockSubmitter{emailFn: func(string) (*models.EmailAck, error) {
				return nil, tt.err
			}})
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/api/v1/send-email", map[string]string{"email": "x@y.z"}))

			code, errCode, _ := parseErr(t, rec)
			if code != tt.wantCode || errCode != tt.wantErr {
				t.Errorf("expected %d %s, got %d %s", tt.wantCode, tt.wantErr, code, errCode)
			}
		})
	}
}

func TestSendEmailHandler_InvalidJSON(t *testing.T) {
	h := NewSendEmailHandler(&mockSubmitter{})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/send-email", strings.NewReader("[")))

	code, errCode, _ := parseErr(t, rec)
	if code != http.StatusBadRequest || errCode != "INVALID_REQUEST" {
		t.Errorf("expected 400 INVALID_REQUEST, got %d %s", code, errCode)
	}
}

// --- document ---

func TestDocumentHandler_Download(t *testing.T) {
	rec := httptest.NewRecorder()

	NewDocumentHandler(succeededSession()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/document", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="intro-to-testing.md"` {
		t.Errorf("unexpected Content-Disposition: %q", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/markdown") {
		t.Errorf("unexpected Content-Type: %q", got)
	}
	if rec.Body.String() != "# Intro to Testing\n\nBody." {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestDocumentHandler_NoDocument(t *testing.T) {
	for _, st := range []lifecycle.State{
		{Phase: lifecycle.PhaseIdle},
		{Phase: lifecycle.PhasePolling, JobID: "job-1"},
		{Phase: lifecycle.PhaseFailed, JobID: "job-1", ErrorMessage: "transcript unavailable"},
	} {
		t.Run(string(st.Phase), func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewDocumentHandler(&mockSession{state: st}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/document", nil))

			code, errCode, _ := parseErr(t, rec)
			if code != http.StatusNotFound || errCode != "NO_DOCUMENT" {
				t.Errorf("expected 404 NO_DOCUMENT, got %d %s", code, errCode)
			}
		})
	}
}
