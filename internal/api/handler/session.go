package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/ytblog/internal/api/response"
	"github.com/kiranshivaraju/ytblog/internal/document"
	"github.com/kiranshivaraju/ytblog/internal/lifecycle"
	"github.com/kiranshivaraju/ytblog/internal/submit"
	"github.com/kiranshivaraju/ytblog/pkg/models"
)

// Submitter defines the controller operations the handlers depend on.
type Submitter interface {
	Submit(ctx context.Context, req models.GenerationRequest) (string, error)
	SendEmail(ctx context.Context, email string) (*models.EmailAck, error)
}

// Session exposes the lifecycle of the job being tracked.
type Session interface {
	State() lifecycle.State
	Reset()
}

// NewGenerateHandler returns an http.HandlerFunc for POST /api/v1/generate.
func NewGenerateHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		jobID, err := svc.Submit(r.Context(), req)
		if err != nil {
			var (
				verr *submit.ValidationError
				serr *submit.SubmissionError
			)
			switch {
			case errors.As(err, &verr):
				response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message,
					map[string]string{"field": verr.Field})
			case errors.Is(err, submit.ErrSubmissionInFlight):
				response.Error(w, http.StatusConflict, "SUBMISSION_IN_FLIGHT",
					"A submission is already in progress", nil)
			case errors.As(err, &serr):
				response.Error(w, http.StatusBadGateway, "SUBMISSION_FAILED", serr.Message, nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, map[string]string{"job_id": jobID})
	}
}

// NewSessionHandler returns an http.HandlerFunc for GET /api/v1/session.
func NewSessionHandler(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, s.State())
	}
}

// NewResetHandler returns an http.HandlerFunc for POST /api/v1/session/reset.
func NewResetHandler(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.Reset()
		response.JSON(w, s.State())
	}
}

// NewSendEmailHandler returns an http.HandlerFunc for POST /api/v1/send-email.
func NewSendEmailHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		ack, err := svc.SendEmail(r.Context(), req.Email)
		if err != nil {
			var (
				verr *submit.ValidationError
				eerr *submit.EmailError
			)
			switch {
			case errors.Is(err, submit.ErrNoCompletedJob):
				response.Error(w, http.StatusConflict, "NO_COMPLETED_JOB",
					"There is no completed blog post to email", nil)
			case errors.As(err, &verr):
				response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message,
					map[string]string{"field": verr.Field})
			case errors.As(err, &eerr):
				response.Error(w, http.StatusBadGateway, "EMAIL_FAILED", eerr.Message, nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		msg := ""
		if ack != nil {
			msg = ack.Message
		}
		response.JSON(w, map[string]any{"sent": true, "message": msg})
	}
}

// NewDocumentHandler returns an http.HandlerFunc for GET /api/v1/document.
// It serves the finished post as a markdown download.
func NewDocumentHandler(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := s.State()
		if st.Phase != lifecycle.PhaseSucceeded || st.Document == nil {
			response.Error(w, http.StatusNotFound, "NO_DOCUMENT",
				"No generated blog post is available", nil)
			return
		}

		response.Attachment(w, document.Filename(st.Document.Title), document.ContentType,
			[]byte(st.Document.MarkdownContent))
	}
}
