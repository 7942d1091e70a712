package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// markerScorer flags content containing the uppercase section markers.
func markerScorer(a *Attempt) (bool, bool) {
	return strings.Contains(a.RawContent, "INGREDIENTS"),
		strings.Contains(a.RawContent, "STEPS")
}

func TestCandidateLinks(t *testing.T) {
	t.Run("filters social and bare-root links", func(t *testing.T) {
		a := &Attempt{
			SourceURL: "https://www.instagram.com/reel/X/",
			RawContent: "Full recipe: https://myblog.com/recipes/soup " +
				"also https://www.facebook.com/page/post " +
				"and https://linktr.ee/chef " +
				"and https://otherblog.com/",
		}
		links := candidateLinks(a)
		require.Len(t, links, 1)
		assert.Equal(t, "https://myblog.com/recipes/soup", links[0])
	})

	t.Run("skips links to the same host", func(t *testing.T) {
		a := &Attempt{
			SourceURL:  "https://myblog.com/post/1",
			RawContent: "see https://myblog.com/recipes/soup",
		}
		assert.Empty(t, candidateLinks(a))
	})

	t.Run("skips links into social platforms", func(t *testing.T) {
		a := &Attempt{
			SourceURL:  "https://myblog.com/post/1",
			RawContent: "watch https://www.youtube.com/watch?v=abc",
		}
		assert.Empty(t, candidateLinks(a))
	})

	t.Run("dedupes by host and path", func(t *testing.T) {
		a := &Attempt{
			SourceURL: "https://www.instagram.com/reel/X/",
			RawContent: "https://myblog.com/recipes/soup and again " +
				"https://myblog.com/recipes/soup?utm=ig",
		}
		assert.Len(t, candidateLinks(a), 1)
	})
}

func TestMaybeFollow(t *testing.T) {
	recipePage := `<html><title>Real Soup</title><body>INGREDIENTS STEPS</body></html>`

	t.Run("follows a single promising link", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Write([]byte(recipePage))
		}))
		defer srv.Close()

		f := NewFollower(NewClient(WithSleeper(&fakeSleeper{})), markerScorer, zap.NewNop())
		orig := &Attempt{
			SourceURL:  "https://www.instagram.com/reel/X/",
			RawContent: "Recipe here: " + srv.URL + "/recipes/soup",
		}
		got := f.MaybeFollow(context.Background(), orig)

		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, got.RawContent, "INGREDIENTS")
		assert.Equal(t, srv.URL+"/recipes/soup", got.SourceURL)
	})

	t.Run("keeps original when secondary is no better", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body>nothing here</body></html>`))
		}))
		defer srv.Close()

		f := NewFollower(NewClient(WithSleeper(&fakeSleeper{})), markerScorer, zap.NewNop())
		orig := &Attempt{
			SourceURL:  "https://www.instagram.com/reel/X/",
			RawContent: "INGREDIENTS in caption, link " + srv.URL + "/recipes/soup",
		}
		got := f.MaybeFollow(context.Background(), orig)
		assert.Same(t, orig, got)
	})

	t.Run("ignores multiple candidates", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}))
		defer srv.Close()

		f := NewFollower(NewClient(WithSleeper(&fakeSleeper{})), markerScorer, zap.NewNop())
		orig := &Attempt{
			SourceURL: "https://www.instagram.com/reel/X/",
			RawContent: "either https://blogone.com/recipes/a " +
				"or https://blogtwo.com/recipes/b",
		}
		got := f.MaybeFollow(context.Background(), orig)

		assert.Same(t, orig, got)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("keeps original when follow-up fetch fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		f := NewFollower(NewClient(WithSleeper(&fakeSleeper{})), markerScorer, zap.NewNop())
		orig := &Attempt{
			SourceURL:  "https://www.instagram.com/reel/X/",
			RawContent: "link " + srv.URL + "/recipes/soup",
		}
		got := f.MaybeFollow(context.Background(), orig)
		assert.Same(t, orig, got)
	})

	t.Run("carries original title when secondary has none", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body>INGREDIENTS STEPS</body></html>`))
		}))
		defer srv.Close()

		f := NewFollower(NewClient(WithSleeper(&fakeSleeper{})), markerScorer, zap.NewNop())
		orig := &Attempt{
			SourceURL:           "https://www.instagram.com/reel/X/",
			RawContent:          "link " + srv.URL + "/recipes/soup",
			CandidateRecipeName: "Grandma's Soup",
		}
		got := f.MaybeFollow(context.Background(), orig)
		assert.Equal(t, "Grandma's Soup", got.CandidateRecipeName)
	})
}
