// package models defines the data model for the chapgen client
package models

import "time"

// Mode identifies which generation flow started a job.
type Mode string

const (
	ModeLatest Mode = "latest" // most recent upload, backend writes the description back
	ModeManual Mode = "manual" // user-supplied URL, chapters displayed locally
)

// Status is a job lifecycle status as reported by the backend.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status ends a job's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is the single client-tracked generation request, from acceptance to
// terminal status. At most one exists at a time.
type Job struct {
	JobID     string    `json:"jobId"`
	VideoID   string    `json:"videoId,omitempty"`
	Mode      Mode      `json:"mode"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile holds the signed-in user's identity as returned by the userinfo endpoint.
type Profile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// Chapter is a single generated chapter marker.
type Chapter struct {
	StartTime float64 `json:"start_time"` // offset in seconds
	Title     string  `json:"title"`
}

// Thumbnail is one entry of a video's thumbnail set.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Snippet mirrors the YouTube Data API video snippet. The write API requires
// the full snippet to be sent back, so all fields round-trip.
type Snippet struct {
	PublishedAt          string               `json:"publishedAt,omitempty"`
	ChannelID            string               `json:"channelId,omitempty"`
	Title                string               `json:"title"`
	Description          string               `json:"description"`
	Thumbnails           map[string]Thumbnail `json:"thumbnails,omitempty"`
	ChannelTitle         string               `json:"channelTitle,omitempty"`
	Tags                 []string             `json:"tags,omitempty"`
	CategoryID           string               `json:"categoryId,omitempty"`
	LiveBroadcastContent string               `json:"liveBroadcastContent,omitempty"`
	DefaultLanguage      string               `json:"defaultLanguage,omitempty"`
	DefaultAudioLanguage string               `json:"defaultAudioLanguage,omitempty"`
}

// Video is a YouTube video resource with its snippet.
type Video struct {
	ID      string  `json:"id"`
	Snippet Snippet `json:"snippet"`
}

// ProcessedVideo is one entry of the backend's per-user job history.
type ProcessedVideo struct {
	ID           string `json:"id"`
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	Description  string `json:"description"`
	Status       string `json:"status"`
}

// Preferences are the user's generation sliders, persisted across sessions.
type Preferences struct {
	Creativity int `json:"creativity"` // 0..4
	Threshold  int `json:"threshold"`  // 0..2
}

var (
	creativityLabels = []string{"GenZ", "Creative", "Neutral", "Formal", "Corporate"}
	thresholdLabels  = []string{"Detailed", "Default", "Abstract"}
)

// DefaultPreferences returns the out-of-box slider positions.
func DefaultPreferences() Preferences {
	return Preferences{Creativity: 2, Threshold: 1}
}

// CreativityLabel maps the creativity slider position to the label the
// backend expects. Out-of-range positions fall back to "Neutral".
func (p Preferences) CreativityLabel() string {
	if p.Creativity < 0 || p.Creativity >= len(creativityLabels) {
		return "Neutral"
	}
	return creativityLabels[p.Creativity]
}

// ThresholdLabel maps the segmentation slider position to the label the
// backend expects. Out-of-range positions fall back to "Default".
func (p Preferences) ThresholdLabel() string {
	if p.Threshold < 0 || p.Threshold >= len(thresholdLabels) {
		return "Default"
	}
	return thresholdLabels[p.Threshold]
}

// CreativityLabels returns the slider labels in position order.
func CreativityLabels() []string { return creativityLabels }

// ThresholdLabels returns the slider labels in position order.
func ThresholdLabels() []string { return thresholdLabels }
