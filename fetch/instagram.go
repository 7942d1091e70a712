package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// instagramFetcher retrieves post captions through Instagram's media info
// endpoint, authenticating with a stored session credential.
type instagramFetcher struct {
	client  *Client
	apiBase string
}

// instagramMedia mirrors the relevant subset of the media info response.
type instagramMedia struct {
	Items []struct {
		Title   string `json:"title"`
		Caption struct {
			Text string `json:"text"`
		} `json:"caption"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"items"`
}

func (f *instagramFetcher) Fetch(ctx context.Context, url string) (*Attempt, error) {
	session, ok := f.client.creds.Get(CredInstagramSessionID)
	if !ok || session == "" {
		return nil, &AuthError{Platform: PlatformInstagram, Reason: "no session credential configured"}
	}

	shortcode := instagramShortcode(url)
	if shortcode == "" {
		return nil, &NotFoundError{URL: url}
	}

	header := http.Header{}
	header.Set("Cookie", "sessionid="+session)
	header.Set("Accept", "application/json")

	endpoint := fmt.Sprintf("%s/p/%s/?__a=1&__d=dis", f.apiBase, shortcode)
	body, err := f.client.get(ctx, endpoint, header)
	if err != nil {
		// 401/403 on an authenticated call means the session is rejected.
		var fe *FetchError
		if errors.As(err, &fe) && (fe.StatusCode == http.StatusUnauthorized || fe.StatusCode == http.StatusForbidden) {
			return nil, &AuthError{Platform: PlatformInstagram, Reason: "session expired or rejected"}
		}
		return nil, err
	}

	var media instagramMedia
	if err := json.Unmarshal(body, &media); err != nil || len(media.Items) == 0 {
		// Instagram serves an HTML login page instead of JSON for private
		// or removed posts.
		return nil, &NotFoundError{URL: url}
	}

	item := media.Items[0]
	var parts []string
	title := item.Title
	if title != "" {
		parts = append(parts, "Title: "+title)
	}
	if item.Caption.Text != "" {
		parts = append(parts, "Caption: "+item.Caption.Text)
	}
	if item.User.Username != "" {
		parts = append(parts, "Posted by: @"+item.User.Username)
	}

	return &Attempt{
		SourceURL:           url,
		Platform:            PlatformInstagram,
		RawContent:          strings.Join(parts, "\n\n"),
		CandidateRecipeName: title,
	}, nil
}
