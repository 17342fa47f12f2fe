package models

// Message types pushed by the backend over the live connection.
const (
	TypeChaptersReady = "chapters_ready"
	TypeStatusUpdate  = "status_update"
	TypePing          = "ping"
	TypePong          = "pong"
)

// EnvelopeData is the nested payload of a push message. Correlation ids may
// appear here instead of (or in addition to) the envelope top level,
// depending on backend version.
type EnvelopeData struct {
	JobID    string    `json:"job_id,omitempty"`
	VideoID  string    `json:"video_id,omitempty"`
	Status   string    `json:"status,omitempty"`
	Chapters []Chapter `json:"chapters,omitempty"`
}

// Envelope is the wire shape of every inbound push message.
type Envelope struct {
	Type    string        `json:"type"`
	JobID   string        `json:"job_id,omitempty"`
	VideoID string        `json:"video_id,omitempty"`
	Status  string        `json:"status,omitempty"`
	Data    *EnvelopeData `json:"data,omitempty"`
}

// ResolveJobID returns the job id from the top level or the nested payload.
func (e Envelope) ResolveJobID() string {
	if e.JobID != "" {
		return e.JobID
	}
	if e.Data != nil {
		return e.Data.JobID
	}
	return ""
}

// ResolveVideoID returns the video id from the top level or the nested payload.
func (e Envelope) ResolveVideoID() string {
	if e.VideoID != "" {
		return e.VideoID
	}
	if e.Data != nil {
		return e.Data.VideoID
	}
	return ""
}

// ResolveStatus returns the status string from the top level or the nested payload.
func (e Envelope) ResolveStatus() string {
	if e.Status != "" {
		return e.Status
	}
	if e.Data != nil {
		return e.Data.Status
	}
	return ""
}

// Chapters returns the chapter list carried by the message, if any.
func (e Envelope) Chapters() []Chapter {
	if e.Data == nil {
		return nil
	}
	return e.Data.Chapters
}

// AuthMessage is sent to the backend to bind the connection to a user.
type AuthMessage struct {
	AccessToken string `json:"access_token"`
}

// PingMessage is the periodic keep-alive.
type PingMessage struct {
	Type string `json:"type"`
}

// ClientStatusMessage is an optional client-reported status update.
type ClientStatusMessage struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}
