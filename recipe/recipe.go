// Package recipe defines the canonical recipe schema produced by the
// normalization pipeline, along with validation of its structural invariants.
package recipe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty is the optional difficulty rating of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether the difficulty is one of the known ratings.
// The empty string is valid (difficulty unset).
func (d Difficulty) Valid() bool {
	switch d {
	case "", DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Ingredient is a single entry in a recipe's ingredient list. Order within
// the list matches the source presentation.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     string   `json:"unit"`
}

// Recipe is the canonical output artifact of the pipeline.
//
// A Recipe is valid only if Title, Ingredients, and Steps are all non-empty.
// Validate enforces this; the pipeline never publishes a success result
// carrying a recipe that fails Validate.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Tags        []string     `json:"tags,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`

	Servings       int        `json:"servings,omitempty"`
	PrepTime       string     `json:"prep_time,omitempty"`
	CookTime       string     `json:"cook_time,omitempty"`
	TotalTime      string     `json:"total_time,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	Cuisine        string     `json:"cuisine,omitempty"`
	SourceURL      string     `json:"source_url,omitempty"`
	AdditionalInfo []string   `json:"additional_info,omitempty"`
}

// Validation errors returned by Validate.
var (
	ErrEmptyTitle        = errors.New("recipe title is empty")
	ErrNoIngredients     = errors.New("recipe has no ingredients")
	ErrNoSteps           = errors.New("recipe has no steps")
	ErrInvalidServings   = errors.New("servings must be positive")
	ErrInvalidDifficulty = errors.New("difficulty must be easy, medium, or hard")
)

// Validate checks the structural invariants of the recipe.
func (r *Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if len(r.Ingredients) == 0 {
		return ErrNoIngredients
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredient %d: name is empty", i+1)
		}
	}
	if len(r.Steps) == 0 {
		return ErrNoSteps
	}
	for i, step := range r.Steps {
		if strings.TrimSpace(step) == "" {
			return fmt.Errorf("step %d: text is empty", i+1)
		}
	}
	if r.Servings < 0 {
		return ErrInvalidServings
	}
	if !r.Difficulty.Valid() {
		return ErrInvalidDifficulty
	}
	return nil
}

// Finalize assigns the recipe its identifier and creation timestamp.
// It is called exactly once, when the normalization stage accepts the recipe.
func (r *Recipe) Finalize(sourceURL string) {
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()
	if sourceURL != "" {
		r.SourceURL = sourceURL
	}
}
