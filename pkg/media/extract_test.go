package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractImageURL(t *testing.T) {
	content := `Here is your image: <img alt="result" src="https://x/y.png" width="512">`

	result, ok := Extract(content)
	require.True(t, ok)
	require.Equal(t, "https://x/y.png", result.URL)
	require.Empty(t, result.Poster)
}

func TestExtractMissReturnsNotFound(t *testing.T) {
	result, ok := Extract("plain text, no markup at all")
	require.False(t, ok)
	require.Empty(t, result.URL)
}

func TestExtractVideoWithPosterAndProgress(t *testing.T) {
	content := `视频生成进度1%
视频生成进度50%
视频生成进度100%
<video controls src="https://x/v.mp4" poster="https://x/p.jpg"></video>`

	result, ok := Extract(content)
	require.True(t, ok)
	require.Equal(t, "https://x/v.mp4", result.URL)
	require.Equal(t, "https://x/p.jpg", result.Poster)
	require.Equal(t, 100, result.Progress)
}

func TestExtractEscapedAttributes(t *testing.T) {
	// The proxy sometimes leaves JSON escaping in the embedded HTML.
	content := `<video src=\"https://x/v.mp4\" poster=\"https://x/p.jpg\">`

	result, ok := Extract(content)
	require.True(t, ok)
	require.Equal(t, "https://x/v.mp4", result.URL)
	require.Equal(t, "https://x/p.jpg", result.Poster)
}

func TestExtractToleratesReorderedAttributes(t *testing.T) {
	content := `<video poster="https://x/p.jpg"   controls   src="https://x/v.mp4">`

	result, ok := Extract(content)
	require.True(t, ok)
	require.Equal(t, "https://x/v.mp4", result.URL)
	require.Equal(t, "https://x/p.jpg", result.Poster)
}

func TestProgressTrackerKeepsMax(t *testing.T) {
	tracker := NewProgressTracker()

	_, found := tracker.Best()
	require.False(t, found)

	p, ok := tracker.Observe("视频生成进度40%")
	require.True(t, ok)
	require.Equal(t, 40, p)

	_, ok = tracker.Observe("no marker here")
	require.False(t, ok)

	tracker.Observe("视频生成进度90%")
	tracker.Observe("视频生成进度70%") // out of order, must not regress

	best, found := tracker.Best()
	require.True(t, found)
	require.Equal(t, 90, best)
}
