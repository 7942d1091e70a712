package fetch

import (
	"regexp"
	"strings"
)

// Platform identifies the content source class a URL belongs to. Each
// platform has exactly one fetcher implementation, selected once at
// classification time.
type Platform string

const (
	PlatformGenericWeb Platform = "generic_web"
	PlatformInstagram  Platform = "instagram"
	PlatformYouTube    Platform = "youtube"
	PlatformTikTok     Platform = "tiktok"
)

// Classify maps a URL to its platform by hostname pattern. Unknown hosts
// default to generic_web.
func Classify(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "instagram.com"):
		return PlatformInstagram
	case strings.Contains(lower, "youtube.com"), strings.Contains(lower, "youtu.be"):
		return PlatformYouTube
	case strings.Contains(lower, "tiktok.com"):
		return PlatformTikTok
	default:
		return PlatformGenericWeb
	}
}

var instagramShortcodeRe = regexp.MustCompile(`instagram\.com/(?:reel|p|tv)/([A-Za-z0-9_-]+)`)

// instagramShortcode extracts the post shortcode from an Instagram URL.
// Returns "" when the URL does not reference a post, reel, or video.
func instagramShortcode(url string) string {
	m := instagramShortcodeRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
