package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not signed in")
	ErrTokenExpired     = fmt.Errorf("access token invalid or expired")
	ErrAuthFailed       = fmt.Errorf("authentication failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrChannelNotFound    = fmt.Errorf("no YouTube channel for this account")
	ErrNoUploads          = fmt.Errorf("channel has no uploads")
	ErrVideoNotFound      = fmt.Errorf("video not found")
	ErrJobRejected        = fmt.Errorf("generation request rejected")

	// Input validation errors
	ErrInvalidURL      = fmt.Errorf("could not extract a video id from URL")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Connection errors
	ErrConnectionClosed = fmt.Errorf("connection closed")
)
