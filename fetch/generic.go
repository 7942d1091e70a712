package fetch

import (
	"context"
	"html"
	"regexp"
	"strings"
)

// genericWebFetcher retrieves page HTML over HTTPS. The raw HTML is kept
// as-is in the attempt; the extraction stage strips boilerplate later.
type genericWebFetcher struct {
	client *Client
}

var titleTagRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func (f *genericWebFetcher) Fetch(ctx context.Context, url string) (*Attempt, error) {
	body, err := f.client.get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	return &Attempt{
		SourceURL:           url,
		Platform:            PlatformGenericWeb,
		RawContent:          string(body),
		CandidateRecipeName: htmlTitle(string(body)),
	}, nil
}

// htmlTitle extracts the <title> text from an HTML document, stripped of
// common site-name suffixes ("Best Brownies - Example Kitchen").
func htmlTitle(doc string) string {
	m := titleTagRe.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}
	title := strings.TrimSpace(html.UnescapeString(m[1]))
	for _, sep := range []string{" | ", " - ", " – ", " — "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	return strings.TrimSpace(title)
}
