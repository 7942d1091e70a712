package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://www.instagram.com/reel/Cabc123/", PlatformInstagram},
		{"https://instagram.com/p/Xyz_-9/", PlatformInstagram},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", PlatformYouTube},
		{"https://youtu.be/dQw4w9WgXcQ", PlatformYouTube},
		{"https://www.youtube.com/shorts/abc123", PlatformYouTube},
		{"https://www.tiktok.com/@cook/video/7291", PlatformTikTok},
		{"https://smittenkitchen.com/2024/01/soup/", PlatformGenericWeb},
		{"https://example.com/recipes/42", PlatformGenericWeb},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.url), "url %s", tt.url)
	}
}

func TestInstagramShortcode(t *testing.T) {
	assert.Equal(t, "Cabc123", instagramShortcode("https://www.instagram.com/reel/Cabc123/?igsh=x"))
	assert.Equal(t, "Xyz_-9", instagramShortcode("https://instagram.com/p/Xyz_-9"))
	assert.Equal(t, "Tv99", instagramShortcode("https://www.instagram.com/tv/Tv99/"))
	assert.Empty(t, instagramShortcode("https://www.instagram.com/somechef/"))
}
