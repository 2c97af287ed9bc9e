package models

// GenerationRequest is the body of POST /generate.
// Email is omitted from the payload when empty.
type GenerationRequest struct {
	ChannelName string `json:"channel_name"`
	VideoTitle  string `json:"video_title"`
	Email       string `json:"email,omitempty"`
}

// SendEmailRequest is the body of POST /send-email.
type SendEmailRequest struct {
	JobID string `json:"job_id"`
	Email string `json:"email"`
}

// EmailAck is the acknowledgement returned by POST /send-email.
// The backend does not guarantee either field.
type EmailAck struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
}

// BackendHealth is returned by GET /health.
type BackendHealth struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}
