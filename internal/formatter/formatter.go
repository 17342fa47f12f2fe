// package formatter renders chapter lists and processed-video history into
// output formats (description text, plain text, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/chapgen/cli/internal/models"
)

// FormatTime renders a chapter offset in seconds as zero-padded "MM:SS".
//
// There is deliberately no hour component: a 90 minute offset renders as
// "90:00", matching the timestamps YouTube expects in descriptions.
func FormatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// ChapterBlock renders a chapter list as newline-joined "MM:SS title" lines.
func ChapterBlock(chapters []models.Chapter) string {
	lines := make([]string, len(chapters))
	for i, ch := range chapters {
		lines[i] = fmt.Sprintf("%s %s", FormatTime(ch.StartTime), ch.Title)
	}
	return strings.Join(lines, "\n")
}

// AppendChapters builds the new video description: the existing description
// followed by a "Chapters:" block.
func AppendChapters(description string, chapters []models.Chapter) string {
	return fmt.Sprintf("%s\n\n\nChapters:\n%s", description, ChapterBlock(chapters))
}

// ProcessedToCSV converts the processed-video history to CSV with columns:
// ID, VideoID, Title, Status
func ProcessedToCSV(videos []models.ProcessedVideo) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "VideoID", "Title", "Status"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range videos {
		record := []string{v.ID, v.VideoID, v.Title, v.Status}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ProcessedToMarkdown converts the processed-video history to a Markdown list.
func ProcessedToMarkdown(videos []models.ProcessedVideo) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Processed videos\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(videos)))

	for i, v := range videos {
		buf.WriteString(fmt.Sprintf("%d. %s (`%s`) — %s\n", i+1, v.Title, v.VideoID, v.Status))
	}

	return buf.Bytes()
}
