package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aurachef/ladle/recipe"
)

// modelOutput is the envelope both prompts require from the model.
type modelOutput struct {
	IsValidRecipe bool         `json:"is_valid_recipe"`
	Reason        string       `json:"reason"`
	Recipe        *recipeDraft `json:"recipe"`
}

// recipeDraft is the model-authored recipe before finalization. It matches
// the schema description in the prompt; id and created_at are assigned
// locally, never by the model.
type recipeDraft struct {
	Title          string              `json:"title"`
	Ingredients    []recipe.Ingredient `json:"ingredients"`
	Steps          []string            `json:"steps"`
	Tags           []string            `json:"tags"`
	Servings       int                 `json:"servings"`
	PrepTime       string              `json:"prep_time"`
	CookTime       string              `json:"cook_time"`
	TotalTime      string              `json:"total_time"`
	Difficulty     string              `json:"difficulty"`
	Cuisine        string              `json:"cuisine"`
	AdditionalInfo []string            `json:"additional_info"`
}

func (o *modelOutput) toRecipe() *recipe.Recipe {
	if o.Recipe == nil {
		return &recipe.Recipe{}
	}
	d := o.Recipe
	return &recipe.Recipe{
		Title:          strings.TrimSpace(d.Title),
		Ingredients:    d.Ingredients,
		Steps:          trimAll(d.Steps),
		Tags:           d.Tags,
		Servings:       d.Servings,
		PrepTime:       d.PrepTime,
		CookTime:       d.CookTime,
		TotalTime:      d.TotalTime,
		Difficulty:     recipe.Difficulty(strings.ToLower(strings.TrimSpace(d.Difficulty))),
		Cuisine:        d.Cuisine,
		AdditionalInfo: d.AdditionalInfo,
	}
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseModelOutput decodes the model's response text into the expected
// envelope, tolerating markdown code fences around the JSON.
func parseModelOutput(text string) (*modelOutput, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}
	return &out, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
