package pipeline

import "github.com/aurachef/ladle/recipe"

// Source identifies where a successful recipe came from.
type Source string

const (
	SourceExtraction Source = "extraction"
	SourceKnowledge  Source = "knowledge"
)

// Caller-facing failure reasons. The reason is a stable category; the Error
// field carries the variable machine detail.
const (
	ReasonFetchFailed      = "Could not retrieve content from the source"
	ReasonNothingUsable    = "No readable content found at the source"
	ReasonNoRecipeContent  = "No recipe found in the source content"
	ReasonInvalidOutput    = "Could not produce a valid recipe from the content found"
	ReasonGenerationFailed = "Could not generate a recipe"
	ReasonCancelled        = "Request was cancelled"
)

// Result is the terminal output of one orchestrator run. A run always ends
// in a well-formed Result; failures never surface as panics or bare errors.
type Result struct {
	Success bool `json:"success"`

	// Set on success.
	RecipeJSON *recipe.Recipe `json:"recipe_json,omitempty"`
	Source     Source         `json:"source,omitempty"`

	// Set on failure: a stable human-readable reason, the machine detail,
	// and enough partial data for the caller to offer AI completion
	// without re-fetching.
	Reason           string `json:"reason,omitempty"`
	Error            string `json:"error,omitempty"`
	RecipeName       string `json:"recipe_name,omitempty"`
	HasIngredients   bool   `json:"has_ingredients"`
	HasInstructions  bool   `json:"has_instructions"`
	ExtractedContent string `json:"extracted_content,omitempty"`
}

// PartialSignal reports whether the failure captured enough signal to offer
// knowledge-mode completion: a detected section or a recovered name.
func (r *Result) PartialSignal() bool {
	return !r.Success && (r.HasIngredients || r.HasInstructions || r.RecipeName != "")
}

func successResult(rec *recipe.Recipe, source Source) *Result {
	return &Result{
		Success:         true,
		RecipeJSON:      rec,
		Source:          source,
		HasIngredients:  true,
		HasInstructions: true,
	}
}

func failureResult(reason, detail string) *Result {
	return &Result{
		Success: false,
		Reason:  reason,
		Error:   detail,
	}
}
