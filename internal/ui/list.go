package ui

import (
	"fmt"

	"github.com/chapgen/cli/internal/models"
)

// processedItem wraps [models.ProcessedVideo] to implement list.Item.
type processedItem struct {
	video models.ProcessedVideo
}

func (i processedItem) FilterValue() string { return i.video.Title }
func (i processedItem) Title() string {
	if i.video.Title == "" {
		return i.video.VideoID
	}
	return i.video.Title
}
func (i processedItem) Description() string {
	desc := i.video.Status
	if i.video.VideoID != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.video.VideoID)
	}
	return desc
}
