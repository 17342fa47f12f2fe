package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/chapgen/cli/internal/formatter"
	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// YouTubeService talks to the YouTube Data API v3 with a bearer token.
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeService creates a new YouTube Data API client. requestsPerSecond
// throttles outbound calls; zero or negative disables throttling.
func NewYouTubeService(baseURL string, client *http.Client, requestsPerSecond float64) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// apiError is the error body shape of the Data API.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (y *YouTubeService) doJSON(ctx context.Context, method, endpoint, token string, body []byte, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, y.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// MyUploadsPlaylist resolves the signed-in user's uploads playlist id.
//
// Calls GET /channels?part=contentDetails&mine=true.
func (y *YouTubeService) MyUploadsPlaylist(ctx context.Context, token string) (string, error) {
	var result struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}

	if err := y.doJSON(ctx, http.MethodGet, "/channels?part=contentDetails&mine=true", token, nil, &result); err != nil {
		return "", err
	}

	if len(result.Items) == 0 || result.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", shared.ErrChannelNotFound
	}

	return result.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// LatestUpload resolves the most recent video id in the given uploads playlist.
//
// Calls GET /playlistItems?part=contentDetails&maxResults=1.
func (y *YouTubeService) LatestUpload(ctx context.Context, token, playlistID string) (string, error) {
	var result struct {
		Items []struct {
			ContentDetails struct {
				VideoID string `json:"videoId"`
			} `json:"contentDetails"`
		} `json:"items"`
	}

	endpoint := fmt.Sprintf("/playlistItems?part=contentDetails&playlistId=%s&maxResults=1", url.QueryEscape(playlistID))
	if err := y.doJSON(ctx, http.MethodGet, endpoint, token, nil, &result); err != nil {
		return "", err
	}

	if len(result.Items) == 0 || result.Items[0].ContentDetails.VideoID == "" {
		return "", shared.ErrNoUploads
	}

	return result.Items[0].ContentDetails.VideoID, nil
}

// Video fetches a video's full snippet by id.
//
// Calls GET /videos?part=snippet&id={id}.
func (y *YouTubeService) Video(ctx context.Context, token, videoID string) (*models.Video, error) {
	var result struct {
		Items []models.Video `json:"items"`
	}

	endpoint := fmt.Sprintf("/videos?part=snippet&id=%s", url.QueryEscape(videoID))
	if err := y.doJSON(ctx, http.MethodGet, endpoint, token, nil, &result); err != nil {
		return nil, err
	}

	if len(result.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, videoID)
	}

	video := result.Items[0]
	return &video, nil
}

// UpdateDescription appends the generated chapters to the video's description
// and writes the full snippet back.
//
// Calls PUT /videos?part=snippet.
func (y *YouTubeService) UpdateDescription(ctx context.Context, token string, video *models.Video, chapters []models.Chapter) (*models.Video, error) {
	updated := *video
	updated.Snippet.Description = formatter.AppendChapters(video.Snippet.Description, chapters)

	body, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal video payload: %w", err)
	}

	var result models.Video
	if err := y.doJSON(ctx, http.MethodPut, "/videos?part=snippet", token, body, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ExtractVideoID pulls a video id out of a user-supplied YouTube URL.
//
// Only the canonical "?v=" query form and the youtu.be short-link path form
// are accepted; anything else returns "" so callers can reject the input
// before making any network call.
func ExtractVideoID(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch {
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		return u.Query().Get("v")
	case host == "youtu.be":
		if seg := strings.TrimPrefix(u.Path, "/"); seg != "" {
			return strings.SplitN(seg, "/", 2)[0]
		}
	}

	return ""
}
