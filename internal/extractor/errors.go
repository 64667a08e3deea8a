package extractor

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an extraction failure. yt-dlp reports failures as
// free text, so classification is a substring match over its output;
// that matching lives here and nowhere else.
type Kind int

const (
	// KindOther is any unclassified failure.
	KindOther Kind = iota
	// KindAuth means the source site demanded login or session cookies.
	KindAuth
	// KindNotFound means the video is gone or the URL is wrong.
	KindNotFound
	// KindTimeout means the bounded call deadline expired.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Error is a classified extraction failure.
type Error struct {
	Kind Kind
	Op   string // "probe" or "fetch"
	Msg  string // trimmed yt-dlp output
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// authMarkers are the phrases yt-dlp uses when a site wants a login.
var authMarkers = []string{
	"cookies",
	"login",
	"log in",
	"sign in",
	"authentication",
	"account",
}

var notFoundMarkers = []string{
	"not found",
	"video unavailable",
	"does not exist",
	"404",
	"private video",
	"has been removed",
}

// classify maps yt-dlp output to a Kind.
func classify(msg string) Kind {
	lower := strings.ToLower(msg)
	for _, marker := range authMarkers {
		if strings.Contains(lower, marker) {
			return KindAuth
		}
	}
	for _, marker := range notFoundMarkers {
		if strings.Contains(lower, marker) {
			return KindNotFound
		}
	}
	return KindOther
}

// KindOf returns the Kind of an extraction error, or KindOther for
// anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// MessageOf returns the trimmed extractor output of an extraction
// error, or the plain error text otherwise.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// Retryable reports whether another attempt could plausibly succeed.
// Auth and not-found failures are stable; timeouts already consumed
// the whole deadline.
func Retryable(err error) bool {
	return KindOf(err) == KindOther
}
