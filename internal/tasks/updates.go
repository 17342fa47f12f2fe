package tasks

import "fmt"

// ProgressUpdate represents a progress event during a generation submission.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number
	Total   int    // Total steps in this flow
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ResolveChannel Phase = iota
	ResolveVideo
	FetchVideo
	Submit
	Queued
)

func (p Phase) String() string {
	switch p {
	case ResolveChannel:
		return "resolve_channel"
	case ResolveVideo:
		return "resolve_video"
	case FetchVideo:
		return "fetch_video"
	case Submit:
		return "submit"
	case Queued:
		return "queued"
	default:
		return ""
	}
}

func resolveChannelUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveChannel,
		Step:    step,
		Total:   total,
		Message: "Looking up your YouTube channel...",
	}
}

func resolveVideoUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveVideo,
		Step:    step,
		Total:   total,
		Message: "Finding your most recent upload...",
	}
}

func fetchVideoUpdate(step, total int, videoID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchVideo,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching video details (%s)...", videoID),
	}
}

func submitUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    step,
		Total:   total,
		Message: "Submitting generation request...",
	}
}

func queuedUpdate(step, total int, jobID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Queued,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Job queued: %s", jobID),
	}
}
