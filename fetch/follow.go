package fetch

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Scorer estimates whether an attempt's raw content plausibly contains
// ingredient and instruction sections. The extraction package supplies the
// heuristic; the follower only compares signal counts.
type Scorer func(a *Attempt) (hasIngredients, hasInstructions bool)

// Follower resolves one embedded link from fetched content when that link
// likely holds the actual recipe (a social caption pointing at a blog).
// It never follows more than one hop and never fails: ambiguous or
// unproductive candidates leave the original attempt unchanged.
type Follower struct {
	client *Client
	score  Scorer
	log    *zap.Logger
}

// NewFollower creates a link follower backed by the given fetch client.
func NewFollower(client *Client, score Scorer, log *zap.Logger) *Follower {
	if log == nil {
		log = zap.NewNop()
	}
	return &Follower{client: client, score: score, log: log}
}

var absoluteURLRe = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)

// MaybeFollow scans the attempt's raw content for exactly one candidate
// recipe link on a different host. If found, it fetches that link once and
// keeps whichever content carries the stronger recipe signal. With zero or
// multiple candidates it returns the input unchanged.
func (f *Follower) MaybeFollow(ctx context.Context, attempt *Attempt) *Attempt {
	candidates := candidateLinks(attempt)
	if len(candidates) != 1 {
		return attempt
	}
	target := candidates[0]

	secondary, err := f.client.Fetch(ctx, target)
	if err != nil {
		f.log.Debug("follow-up fetch failed, keeping original",
			zap.String("target", target), zap.Error(err))
		return attempt
	}

	origIng, origInstr := f.score(attempt)
	secIng, secInstr := f.score(secondary)
	if signalCount(secIng, secInstr) <= signalCount(origIng, origInstr) {
		return attempt
	}

	// The secondary content wins; keep the better title of the two.
	if secondary.CandidateRecipeName == "" {
		secondary.CandidateRecipeName = attempt.CandidateRecipeName
	}
	return secondary
}

func signalCount(ing, instr bool) int {
	n := 0
	if ing {
		n++
	}
	if instr {
		n++
	}
	return n
}

// candidateLinks returns the embedded absolute URLs that plausibly lead to
// a recipe page on a host different from the attempt's own.
func candidateLinks(attempt *Attempt) []string {
	origHost := hostOf(attempt.SourceURL)

	seen := make(map[string]bool)
	var out []string
	for _, raw := range absoluteURLRe.FindAllString(attempt.RawContent, -1) {
		link := strings.TrimRight(raw, ".,;:!?")
		host := hostOf(link)
		if host == "" || host == origHost {
			continue
		}
		// Links back into a social platform never carry the recipe body.
		if Classify(link) != PlatformGenericWeb {
			continue
		}
		if !plausibleRecipeLink(link) {
			continue
		}
		key := host + pathOf(link)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, link)
	}
	return out
}

// plausibleRecipeLink filters out bare domains and known non-content hosts.
func plausibleRecipeLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case strings.Contains(host, "facebook.com"),
		strings.Contains(host, "twitter.com"),
		strings.Contains(host, "x.com"),
		strings.Contains(host, "pinterest.com"),
		strings.Contains(host, "linktr.ee"):
		return false
	}
	// A bare domain root is a profile or home page, not a recipe.
	return strings.Trim(u.Path, "/") != ""
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
