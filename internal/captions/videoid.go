package captions

import (
	"net/url"
	"regexp"
	"strings"

	"watchask/internal/domain"
)

// videoIDLen is the fixed length of a YouTube video id.
const videoIDLen = 11

var (
	bareIDRe   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	embeddedRe = regexp.MustCompile(`(?:v=|youtu\.be/|shorts/|embed/)([\w-]{11})`)
)

// ExtractVideoID accepts a full watch URL, a youtu.be short link, a shorts or
// embed URL, or a bare 11-character id, and returns the canonical video id.
// It is deterministic and never performs network access; unrecognizable input
// yields domain.ErrInvalidVideoID.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.ErrInvalidVideoID
	}
	if bareIDRe.MatchString(raw) {
		return raw, nil
	}

	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		switch {
		case strings.HasSuffix(host, "youtu.be"):
			if id := firstPathSegment(u.Path); len(id) >= videoIDLen {
				return id[:videoIDLen], nil
			}
		case strings.Contains(host, "youtube.com"):
			if v := u.Query().Get("v"); len(v) >= videoIDLen {
				return v[:videoIDLen], nil
			}
			for _, prefix := range []string{"/shorts/", "/embed/"} {
				if strings.HasPrefix(u.Path, prefix) {
					if id := strings.TrimPrefix(u.Path, prefix); len(id) >= videoIDLen {
						return id[:videoIDLen], nil
					}
				}
			}
		}
	}

	// Last resort for inputs url.Parse mangles (missing scheme etc).
	if m := embeddedRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	return "", domain.ErrInvalidVideoID
}

func firstPathSegment(path string) string {
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}
