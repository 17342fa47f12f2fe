package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/shared"
)

// GenerationConfig carries the user's generation preferences to the backend.
type GenerationConfig struct {
	Creativity             string `json:"creativity,omitempty"`
	SegmentationThreshold  string `json:"segmentation_threshold,omitempty"`
	UpdateVideoDescription bool   `json:"update_video_description"`
}

// GenerationRequest is the body of a job submission.
type GenerationRequest struct {
	YouTubeURL       string           `json:"youtube_url"`
	GenerationConfig GenerationConfig `json:"generation_config"`
	AccessToken      string           `json:"access_token"`
	VideoDetails     *models.Video    `json:"video_details"`
}

// GenerationResponse is the backend's answer to a job submission.
type GenerationResponse struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	VideoID string `json:"video_id"`
	Message string `json:"message"`
}

// Accepted reports whether the backend queued the job.
func (g *GenerationResponse) Accepted() bool {
	return g != nil && g.Status == "accepted" && g.JobID != ""
}

// BackendService talks to the chapter-generation backend's HTTP API.
type BackendService struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendService creates a backend API client.
func NewBackendService(baseURL string, client *http.Client) *BackendService {
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// SubmitGeneration posts a generation request.
//
// A 202 Accepted is success even though it is not a plain 2xx-with-body
// contract; the decoded response decides acceptance either way.
func (b *BackendService) SubmitGeneration(ctx context.Context, genReq GenerationRequest) (*GenerationResponse, error) {
	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/process-youtube-url/", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	var genResp GenerationResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&genResp)

	ok := (resp.StatusCode >= 200 && resp.StatusCode < 300) || resp.StatusCode == http.StatusAccepted
	if !ok {
		if decodeErr == nil && genResp.Message != "" {
			return nil, fmt.Errorf("%w: %s", shared.ErrJobRejected, genResp.Message)
		}
		return nil, fmt.Errorf("%w: status %d", shared.ErrJobRejected, resp.StatusCode)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	return &genResp, nil
}

// JobsByUser fetches the processed-video history for the given user email.
//
// Calls GET /api/db/jobs/by-user/{email}. A user with no history gets an
// empty list, not an error.
func (b *BackendService) JobsByUser(ctx context.Context, email string) ([]models.ProcessedVideo, error) {
	endpoint := fmt.Sprintf("%s/api/db/jobs/by-user/%s", b.baseURL, url.PathEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var videos []models.ProcessedVideo
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if videos == nil {
		videos = []models.ProcessedVideo{}
	}

	return videos, nil
}
