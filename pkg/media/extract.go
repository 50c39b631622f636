// Package media pulls generated image and video URLs out of the HTML-ish
// content the proxy embeds in chat completions. This is deliberate
// best-effort pattern matching over an uncontrolled upstream format, not an
// HTML parse; callers get a miss, never an error.
package media

import (
	"regexp"
	"strconv"
)

// Result holds whatever could be extracted from a completion's content.
type Result struct {
	URL      string // source URL of the image or video
	Poster   string // video thumbnail, empty when absent
	Progress int    // last progress percentage seen, -1 when never reported
}

// The proxy sometimes returns JSON-escaped HTML (src=\"...\") and sometimes
// plain attributes, so both variants are tried, escaped first.
var (
	srcEscapedRe    = regexp.MustCompile(`src=\\"([^"\\]+\.(?:mp4|png|jpe?g|gif|webp))\\"`)
	srcPlainRe      = regexp.MustCompile(`src="([^"]+\.(?:mp4|png|jpe?g|gif|webp))"`)
	srcAnyRe        = regexp.MustCompile(`src="([^"]+)"`)
	posterEscapedRe = regexp.MustCompile(`poster=\\"([^"\\]+)\\"`)
	posterPlainRe   = regexp.MustCompile(`poster="([^"]+)"`)
	progressRe      = regexp.MustCompile(`进度(\d+)%`)
)

// Extract scans accumulated content for a media source URL and, for video,
// a poster URL. ok is false when no URL could be found.
func Extract(content string) (result Result, ok bool) {
	result.Progress = -1

	url := firstMatch(content, srcEscapedRe, srcPlainRe, srcAnyRe)
	if url == "" {
		return result, false
	}
	result.URL = url
	result.Poster = firstMatch(content, posterEscapedRe, posterPlainRe)

	if p, found := lastProgress(content); found {
		result.Progress = p
	}
	return result, true
}

func firstMatch(content string, res ...*regexp.Regexp) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

func lastProgress(content string) (int, bool) {
	best := -1
	for _, m := range progressRe.FindAllStringSubmatch(content, -1) {
		if p, err := strconv.Atoi(m[1]); err == nil && p > best {
			best = p
		}
	}
	return best, best >= 0
}

// ProgressTracker accumulates progress reports from streamed deltas and
// remembers the highest percentage seen.
type ProgressTracker struct {
	best int
	seen bool
}

// NewProgressTracker returns a tracker with no observations.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{best: -1}
}

// Observe scans one text fragment for progress markers. It returns the
// highest percentage in the fragment and whether one was found, so callers
// can display live feedback.
func (t *ProgressTracker) Observe(text string) (int, bool) {
	p, found := lastProgress(text)
	if !found {
		return 0, false
	}
	if p > t.best {
		t.best = p
	}
	t.seen = true
	return p, true
}

// Best reports the highest progress percentage observed so far.
func (t *ProgressTracker) Best() (int, bool) {
	if !t.seen {
		return 0, false
	}
	return t.best, true
}
