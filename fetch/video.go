package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
)

// oembedResponse is the common subset of the YouTube and TikTok oEmbed
// payloads.
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// youtubeFetcher retrieves video metadata via oEmbed and caption text via
// the timedtext endpoint. Missing captions degrade the attempt rather than
// failing it.
type youtubeFetcher struct {
	client        *Client
	oembedBase    string
	timedtextBase string
}

var youtubeIDRes = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{6,})`),
}

func youtubeVideoID(u string) string {
	for _, re := range youtubeIDRes {
		if m := re.FindStringSubmatch(u); m != nil {
			return m[1]
		}
	}
	return ""
}

func (f *youtubeFetcher) Fetch(ctx context.Context, videoURL string) (*Attempt, error) {
	endpoint := fmt.Sprintf("%s/oembed?url=%s&format=json", f.oembedBase, url.QueryEscape(videoURL))
	body, err := f.client.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var meta oembedResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, &FetchError{URL: videoURL, Cause: err}
	}

	var parts []string
	if meta.Title != "" {
		parts = append(parts, "Title: "+meta.Title)
	}
	if meta.AuthorName != "" {
		parts = append(parts, "Channel: "+meta.AuthorName)
	}

	// Captions are best-effort: a failed or empty timedtext response leaves
	// the attempt metadata-only.
	if id := youtubeVideoID(videoURL); id != "" {
		if captions := f.fetchCaptions(ctx, id); captions != "" {
			parts = append(parts, "Captions: "+captions)
		}
	}

	return &Attempt{
		SourceURL:           videoURL,
		Platform:            PlatformYouTube,
		RawContent:          strings.Join(parts, "\n\n"),
		CandidateRecipeName: meta.Title,
	}, nil
}

var timedtextTagRe = regexp.MustCompile(`(?s)<text[^>]*>(.*?)</text>`)

func (f *youtubeFetcher) fetchCaptions(ctx context.Context, videoID string) string {
	endpoint := fmt.Sprintf("%s/api/timedtext?v=%s&lang=en", f.timedtextBase, url.QueryEscape(videoID))
	body, err := f.client.get(ctx, endpoint, nil)
	if err != nil {
		return ""
	}

	var lines []string
	for _, m := range timedtextTagRe.FindAllStringSubmatch(string(body), -1) {
		text := strings.TrimSpace(html.UnescapeString(m[1]))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " ")
}

// tiktokFetcher retrieves video metadata via TikTok's oEmbed endpoint.
// TikTok folds the description into the oEmbed title.
type tiktokFetcher struct {
	client     *Client
	oembedBase string
}

func (f *tiktokFetcher) Fetch(ctx context.Context, videoURL string) (*Attempt, error) {
	endpoint := fmt.Sprintf("%s/oembed?url=%s", f.oembedBase, url.QueryEscape(videoURL))
	body, err := f.client.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var meta oembedResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, &FetchError{URL: videoURL, Cause: err}
	}

	var parts []string
	if meta.Title != "" {
		parts = append(parts, "Title: "+meta.Title)
	}
	if meta.AuthorName != "" {
		parts = append(parts, "Creator: @"+meta.AuthorName)
	}

	return &Attempt{
		SourceURL:           videoURL,
		Platform:            PlatformTikTok,
		RawContent:          strings.Join(parts, "\n\n"),
		CandidateRecipeName: meta.Title,
	}, nil
}
