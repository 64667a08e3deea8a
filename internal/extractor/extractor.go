package extractor

import (
	"context"
	"time"
)

// Mode is the requested output variant.
type Mode string

const (
	ModeVideo480 Mode = "video480"
	ModeVideo720 Mode = "video720"
	ModeAudio    Mode = "audio"
)

// ParseMode maps a callback payload value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeVideo480, ModeVideo720, ModeAudio:
		return Mode(s), true
	}
	return "", false
}

// Height returns the format height cap for video modes, 0 for audio.
func (m Mode) Height() int {
	switch m {
	case ModeVideo480:
		return 480
	case ModeVideo720:
		return 720
	}
	return 0
}

// Ext returns the output container extension for the mode.
func (m Mode) Ext() string {
	if m == ModeAudio {
		return ".mp3"
	}
	return ".mp4"
}

// Metadata is the result of probing a URL without downloading.
type Metadata struct {
	Title    string
	Duration time.Duration
}

// FetchRequest describes one download-and-transcode job.
type FetchRequest struct {
	URL        string
	Mode       Mode
	OutputPath string
	// Reencode forces an H.264/AAC re-encode with faststart for video
	// modes; false remuxes the source streams as-is.
	Reencode bool
}

// Extractor is the boundary to the download/transcode engine. Probe
// fetches title and duration; Fetch writes the chosen variant to
// req.OutputPath. Failures carry a classified *Error.
type Extractor interface {
	Probe(ctx context.Context, url string) (*Metadata, error)
	Fetch(ctx context.Context, req FetchRequest) error
}
