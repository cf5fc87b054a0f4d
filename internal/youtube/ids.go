package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rshade/youseo/internal/engine"
)

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	// pathPrefixes are the URL path shapes that carry the id as next segment.
	//nolint:gochecknoglobals // Read-only lookup table.
	pathPrefixes = []string{"/shorts/", "/embed/", "/v/", "/live/"}
)

// IsVideoID reports whether s has the shape of a YouTube video id.
func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

// ExtractVideoID returns the video id carried by a watch, youtu.be, shorts,
// embed or v/ URL, or by a bare 11-character id. Other inputs fail with
// engine.ErrMalformed.
func ExtractVideoID(raw string) (string, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return "", fmt.Errorf("empty input: %w", engine.ErrMalformed)
	}
	if IsVideoID(input) {
		return input, nil
	}

	candidate := input
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", raw, engine.ErrMalformed)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = firstSegment(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" || u.Path == "/watch/" || u.Query().Has("v") {
			id = u.Query().Get("v")
			break
		}
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				id = firstSegment(u.Path, prefix)
				break
			}
		}
	default:
		return "", fmt.Errorf("%q is not a YouTube URL: %w", raw, engine.ErrMalformed)
	}

	if !IsVideoID(id) {
		return "", fmt.Errorf("no video id in %q: %w", raw, engine.ErrMalformed)
	}
	return id, nil
}

// firstSegment returns the path segment after prefix.
func firstSegment(path, prefix string) string {
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// WatchURL returns the canonical URL of a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
