package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

const audioBitrate = "192K"

// YTDLP runs the yt-dlp binary for probing and fetching media.
type YTDLP struct {
	ytdlpPath   string
	ffmpegPath  string
	cookiesPath string
	logger      *utils.Logger
}

// NewYTDLP creates an extractor shelling out to yt-dlp. cookiesPath is
// passed to yt-dlp only while the file actually exists on disk.
func NewYTDLP(ytdlpPath, ffmpegPath, cookiesPath string, logger *utils.Logger) *YTDLP {
	return &YTDLP{
		ytdlpPath:   ytdlpPath,
		ffmpegPath:  ffmpegPath,
		cookiesPath: cookiesPath,
		logger:      logger,
	}
}

// probeInfo is the subset of yt-dlp's -J output the bot needs.
type probeInfo struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// Probe runs yt-dlp in metadata-only mode and returns title and duration.
func (y *YTDLP) Probe(ctx context.Context, url string) (*Metadata, error) {
	args := []string{"-J", "--no-download", "--no-warnings"}
	args = y.appendCookies(args)
	args = append(args, url)

	cmd := exec.CommandContext(ctx, y.ytdlpPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	y.logger.Debug("Probing %s", url)
	if err := cmd.Run(); err != nil {
		return nil, y.wrapError(ctx, "probe", stderr.String(), err)
	}

	var info probeInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, &Error{Kind: KindOther, Op: "probe", Msg: fmt.Sprintf("unreadable metadata: %v", err)}
	}
	if info.Title == "" {
		return nil, &Error{Kind: KindNotFound, Op: "probe", Msg: "video not found"}
	}

	return &Metadata{
		Title:    info.Title,
		Duration: time.Duration(info.Duration * float64(time.Second)),
	}, nil
}

// Fetch downloads and transcodes the requested variant to req.OutputPath.
func (y *YTDLP) Fetch(ctx context.Context, req FetchRequest) error {
	args := BuildFetchArgs(req, y.ffmpegPath)
	args = y.appendCookies(args)
	args = append(args, req.URL)

	cmd := exec.CommandContext(ctx, y.ytdlpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	y.logger.Info("Fetching %s as %s -> %s", req.URL, req.Mode, req.OutputPath)
	if err := cmd.Run(); err != nil {
		return y.wrapError(ctx, "fetch", stderr.String(), err)
	}
	return nil
}

// BuildFetchArgs assembles the yt-dlp argument list for a fetch request,
// without the cookies flag and the URL.
func BuildFetchArgs(req FetchRequest, ffmpegPath string) []string {
	args := []string{
		"-o", req.OutputPath,
		"--no-warnings",
		"--ffmpeg-location", ffmpegPath,
	}

	if req.Mode == ModeAudio {
		return append(args,
			"-f", "bestaudio/best",
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", audioBitrate,
		)
	}

	args = append(args,
		"-f", fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", req.Mode.Height()),
		"--merge-output-format", "mp4",
	)
	if req.Reencode {
		args = append(args,
			"--recode-video", "mp4",
			"--postprocessor-args", "ffmpeg:-c:v libx264 -c:a aac -movflags +faststart",
		)
	}
	return args
}

// appendCookies adds the cookies flag while the cookie file exists.
func (y *YTDLP) appendCookies(args []string) []string {
	if y.cookiesPath == "" {
		return args
	}
	if _, err := os.Stat(y.cookiesPath); err != nil {
		return args
	}
	return append(args, "--cookies", y.cookiesPath)
}

// wrapError converts a failed yt-dlp run into a classified *Error.
// A cancelled or expired context wins over whatever yt-dlp printed on
// the way down.
func (y *YTDLP) wrapError(ctx context.Context, op, stderr string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Msg: "deadline exceeded"}
	}

	full := strings.TrimSpace(stderr)
	if full == "" {
		full = err.Error()
	}
	// yt-dlp prints multi-line tracebacks; the last line carries the reason.
	msg := full
	if idx := strings.LastIndex(msg, "\n"); idx >= 0 {
		msg = strings.TrimSpace(msg[idx+1:])
	}

	return &Error{Kind: classify(full), Op: op, Msg: msg}
}
