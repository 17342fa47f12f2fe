package formatter

import (
	"strings"
	"testing"

	"github.com/chapgen/cli/internal/models"
)

func TestFormatTime(t *testing.T) {
	t.Run("formats zero", func(t *testing.T) {
		if got := FormatTime(0); got != "00:00" {
			t.Errorf("expected 00:00, got %s", got)
		}
	})

	t.Run("formats seconds and minutes", func(t *testing.T) {
		cases := []struct {
			seconds float64
			want    string
		}{
			{5, "00:05"},
			{59, "00:59"},
			{60, "01:00"},
			{75, "01:15"},
			{629, "10:29"},
			{3599, "59:59"},
		}

		for _, tc := range cases {
			if got := FormatTime(tc.seconds); got != tc.want {
				t.Errorf("FormatTime(%v): expected %s, got %s", tc.seconds, tc.want, got)
			}
		}
	})

	t.Run("minutes keep growing past an hour", func(t *testing.T) {
		if got := FormatTime(3600); got != "60:00" {
			t.Errorf("expected 60:00, got %s", got)
		}
		if got := FormatTime(5400); got != "90:00" {
			t.Errorf("expected 90:00, got %s", got)
		}
	})

	t.Run("truncates fractional seconds", func(t *testing.T) {
		if got := FormatTime(61.9); got != "01:01" {
			t.Errorf("expected 01:01, got %s", got)
		}
	})
}

func TestChapterBlock(t *testing.T) {
	t.Run("formats one line per chapter", func(t *testing.T) {
		chapters := []models.Chapter{
			{StartTime: 0, Title: "Intro"},
			{StartTime: 75, Title: "Main Topic"},
			{StartTime: 3599, Title: "Outro"},
		}

		got := ChapterBlock(chapters)
		want := "00:00 Intro\n01:15 Main Topic\n59:59 Outro"

		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("empty input yields empty block", func(t *testing.T) {
		if got := ChapterBlock(nil); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestAppendChapters(t *testing.T) {
	t.Run("appends block after three newlines and a heading", func(t *testing.T) {
		chapters := []models.Chapter{
			{StartTime: 0, Title: "Intro"},
			{StartTime: 90, Title: "Demo"},
		}

		got := AppendChapters("My video description.", chapters)
		want := "My video description.\n\n\nChapters:\n00:00 Intro\n01:30 Demo"

		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("keeps the original description verbatim", func(t *testing.T) {
		desc := "line one\nline two"
		got := AppendChapters(desc, []models.Chapter{{StartTime: 0, Title: "A"}})

		if !strings.HasPrefix(got, desc) {
			t.Errorf("expected output to start with the original description, got %q", got)
		}
	})

	t.Run("empty description still gets the heading", func(t *testing.T) {
		got := AppendChapters("", []models.Chapter{{StartTime: 0, Title: "A"}})
		want := "\n\n\nChapters:\n00:00 A"

		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestProcessedToCSV(t *testing.T) {
	t.Run("writes header and rows", func(t *testing.T) {
		videos := []models.ProcessedVideo{
			{ID: "1", VideoID: "abc", Title: "First", Status: "completed"},
			{ID: "2", VideoID: "def", Title: "Second", Status: "failed"},
		}

		data, err := ProcessedToCSV(videos)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
		}
		if !strings.Contains(lines[0], "VideoID") {
			t.Errorf("expected header row, got %q", lines[0])
		}
		if !strings.Contains(lines[1], "abc") || !strings.Contains(lines[1], "First") {
			t.Errorf("expected first row values, got %q", lines[1])
		}
	})

	t.Run("quotes fields containing commas", func(t *testing.T) {
		videos := []models.ProcessedVideo{
			{ID: "1", VideoID: "abc", Title: "Hello, World", Status: "completed"},
		}

		data, err := ProcessedToCSV(videos)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(string(data), `"Hello, World"`) {
			t.Errorf("expected quoted title, got %q", string(data))
		}
	})

	t.Run("empty list yields header only", func(t *testing.T) {
		data, err := ProcessedToCSV(nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 1 {
			t.Errorf("expected header only, got %q", lines)
		}
	})
}

func TestProcessedToMarkdown(t *testing.T) {
	t.Run("writes heading, total, and numbered entries", func(t *testing.T) {
		videos := []models.ProcessedVideo{
			{ID: "1", VideoID: "abc", Title: "First", Status: "completed"},
			{ID: "2", VideoID: "def", Title: "Second", Status: "failed"},
		}

		got := string(ProcessedToMarkdown(videos))

		if !strings.HasPrefix(got, "# Processed videos\n") {
			t.Errorf("expected heading, got %q", got)
		}
		if !strings.Contains(got, "**Total**: 2") {
			t.Errorf("expected total line, got %q", got)
		}
		if !strings.Contains(got, "1. First (`abc`) — completed") {
			t.Errorf("expected first entry, got %q", got)
		}
		if !strings.Contains(got, "2. Second (`def`) — failed") {
			t.Errorf("expected second entry, got %q", got)
		}
	})

	t.Run("empty history shows zero total", func(t *testing.T) {
		got := string(ProcessedToMarkdown(nil))
		if !strings.Contains(got, "**Total**: 0") {
			t.Errorf("expected zero total, got %q", got)
		}
	})
}
