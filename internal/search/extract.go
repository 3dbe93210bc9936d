package search

import (
	"net/url"
	"regexp"
	"strings"
)

// blockedPaths are first path segments that are Instagram features, not
// profiles. Posts live under "p" (instagram.com/p/<id>); "post" is blocked
// as well.
var blockedPaths = map[string]bool{
	"p":         true,
	"post":      true,
	"reel":      true,
	"reels":     true,
	"tv":        true,
	"explore":   true,
	"stories":   true,
	"accounts":  true,
	"developer": true,
	"about":     true,
	"directory": true,
	"tags":      true,
}

// handlePattern is Instagram's handle syntax: 1-30 chars of letters,
// digits, dots, underscores.
var handlePattern = regexp.MustCompile(`^[a-z0-9._]{1,30}$`)

// ExtractHandle derives a validated Instagram handle from a result URL.
// Returns "" for non-Instagram hosts, blocked feature paths, invalid handle
// syntax, and malformed URLs; it never fails.
func ExtractHandle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host != "instagram.com" && !strings.HasSuffix(host, ".instagram.com") {
		return ""
	}

	var first string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			first = seg
			break
		}
	}
	if first == "" {
		return ""
	}

	handle := strings.TrimPrefix(strings.ToLower(first), "@")
	if blockedPaths[handle] {
		return ""
	}
	if !handlePattern.MatchString(handle) {
		return ""
	}
	return handle
}
