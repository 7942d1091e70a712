// Package extract turns fetched content into unstructured candidate recipe
// text plus auxiliary signals. It is purely heuristic: no model calls, and
// it never fails. The worst case is an attempt with both section signals
// false and whatever text was fetched.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/aurachef/ladle/fetch"
)

// ParseError indicates a source yielded no usable text after boilerplate
// stripping. The extractor itself never fails; the orchestrator raises this
// when an enriched attempt comes back empty.
type ParseError struct {
	SourceURL string
}

func (e *ParseError) Error() string {
	return "no usable text content in " + e.SourceURL
}

// Extractor strips boilerplate from fetched content and scores it for
// ingredient and instruction sections. The line-count thresholds are
// tunable policy, not contract.
type Extractor struct {
	// MinIngredientLines is the number of quantity-shaped lines required to
	// claim an ingredients section without an explicit heading.
	MinIngredientLines int

	// MinStepLines is the number of numbered or imperative lines required to
	// claim an instructions section without an explicit heading.
	MinStepLines int
}

// New creates an extractor with default thresholds.
func New() *Extractor {
	return &Extractor{
		MinIngredientLines: 2,
		MinStepLines:       2,
	}
}

// Enrich replaces the attempt's raw content with the trimmed candidate body
// and sets the section signals. The input is modified in place and returned.
func (e *Extractor) Enrich(attempt *fetch.Attempt) *fetch.Attempt {
	text := attempt.RawContent
	if looksLikeHTML(text) {
		body, title := stripHTML(text, attempt.SourceURL)
		if body != "" {
			text = body
		} else {
			text = ""
		}
		if attempt.CandidateRecipeName == "" && title != "" {
			attempt.CandidateRecipeName = title
		}
	}

	text = normalizeText(text)
	attempt.RawContent = text
	attempt.HasIngredients, attempt.HasInstructions = e.Signals(text)
	return attempt
}

// Score reports the section signals for an attempt without modifying it.
// It satisfies fetch.Scorer for the link follower.
func (e *Extractor) Score(attempt *fetch.Attempt) (bool, bool) {
	text := attempt.RawContent
	if looksLikeHTML(text) {
		body, _ := stripHTML(text, attempt.SourceURL)
		text = body
	}
	return e.Signals(normalizeText(text))
}

// Signals reports whether the text plausibly contains an ingredients
// section and an instructions section.
func (e *Extractor) Signals(text string) (hasIngredients, hasInstructions bool) {
	ingHeading, stepHeading := sectionHeadings(text)
	ingLines, stepLines := CountSignalLines(text)

	hasIngredients = ingLines >= e.MinIngredientLines || (ingHeading && ingLines >= 1)
	hasInstructions = stepLines >= e.MinStepLines || (stepHeading && stepLines >= 1)
	return hasIngredients, hasInstructions
}

var (
	ingredientHeadingRe  = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?ingredients?\b`)
	instructionHeadingRe = regexp.MustCompile(`(?im)^\s*(?:#+\s*)?(?:instructions?|directions?|method|steps|preparation)\b`)

	// A quantity followed by a measure word, optionally bulleted:
	// "2 cups flour", "- 1/2 tsp salt", "• 250 g butter".
	quantityLineRe = regexp.MustCompile(`(?i)^\s*(?:[-*•]\s*)?(?:\d[\d/.,\s]*|½|⅓|¼|¾|⅔)\s*(?:cups?|tbsps?|tablespoons?|tsps?|teaspoons?|grams?|g|kgs?|mls?|liters?|litres?|l|ozs?|ounces?|pounds?|lbs?|cloves?|slices?|pinch(?:es)?|cans?|sticks?|pieces?|eggs?)\b`)

	numberedStepRe = regexp.MustCompile(`^\s*(?:step\s+)?\d+[.):]\s+\S`)

	imperativeStepRe = regexp.MustCompile(`(?i)^\s*(?:preheat|mix|stir|add|combine|whisk|heat|pour|bake|cook|simmer|boil|fry|saute|sauté|season|chop|dice|slice|fold|knead|let|serve|transfer|remove|place|cover|drain|garnish|blend|beat|melt|grease|roast|grill|marinate)\b.{10,}`)
)

// CountSignalLines counts quantity-shaped ingredient lines and
// numbered/imperative step lines in the text.
func CountSignalLines(text string) (ingredientLines, stepLines int) {
	for _, line := range strings.Split(text, "\n") {
		switch {
		case quantityLineRe.MatchString(line):
			ingredientLines++
		case numberedStepRe.MatchString(line), imperativeStepRe.MatchString(line):
			stepLines++
		}
	}
	return ingredientLines, stepLines
}

func sectionHeadings(text string) (ingredients, instructions bool) {
	return ingredientHeadingRe.MatchString(text), instructionHeadingRe.MatchString(text)
}

func looksLikeHTML(text string) bool {
	head := text
	if len(head) > 1024 {
		head = head[:1024]
	}
	lower := strings.ToLower(head)
	return strings.Contains(lower, "<html") ||
		strings.Contains(lower, "<!doctype html") ||
		strings.Contains(lower, "<body") ||
		strings.Contains(lower, "<div")
}

// stripHTML runs readability over an HTML document, dropping navigation and
// boilerplate, and returns the article text and title.
func stripHTML(doc, sourceURL string) (body, title string) {
	parsedURL, _ := url.Parse(sourceURL)
	article, err := readability.FromReader(strings.NewReader(doc), parsedURL)
	if err != nil {
		return "", ""
	}
	return article.TextContent, strings.TrimSpace(article.Title)
}

var (
	multiSpace   = regexp.MustCompile(`[ \t]+`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
)

func normalizeText(s string) string {
	s = strings.TrimSpace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return s
}
