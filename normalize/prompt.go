package normalize

import "fmt"

// recipeSchemaDescription is shared by both prompts so extraction and
// knowledge mode produce the same JSON shape.
const recipeSchemaDescription = `Respond with a single JSON object:
{
  "is_valid_recipe": true or false,
  "reason": "one-sentence explanation of your decision",
  "recipe": {
    "title": "recipe name",
    "ingredients": [{"name": "flour", "quantity": 2, "unit": "cups"}],
    "steps": ["step text in cooking order"],
    "tags": ["optional tags"],
    "servings": 4,
    "prep_time": "15 minutes",
    "cook_time": "30 minutes",
    "total_time": "45 minutes",
    "difficulty": "easy|medium|hard",
    "cuisine": "optional cuisine",
    "additional_info": ["optional tips"]
  }
}

Rules:
- "quantity" may be a number or a string like "a pinch"; keep values exactly as authored, do not convert units.
- "ingredients" and "steps" must be non-empty when is_valid_recipe is true.
- Preserve ingredient order and step order from the source.
- Omit optional fields you cannot determine; never invent timings.`

func extractionPrompt(content, sourceURL string) string {
	return fmt.Sprintf(`You are a recipe validation and formatting expert. Analyze the content below.

A valid recipe MUST have BOTH an ingredients list with quantities AND step-by-step preparation instructions. Be strict: reject restaurant reviews, menus, nutrition articles, ingredient lists without steps, and steps without ingredients. If the content is not a valid recipe, set is_valid_recipe to false, leave "recipe" null, and explain why in "reason".

%s

CONTENT TO ANALYZE:
%s

SOURCE URL: %s`, recipeSchemaDescription, content, sourceURL)
}

func knowledgePrompt(recipeName string) string {
	return fmt.Sprintf(`You are an expert chef. Generate a complete, authentic recipe for %q from your own knowledge.

Requirements:
- Accurate measurements and realistic cooking times.
- Include every needed ingredient; do not assume pantry staples.
- Clear numbered steps a home cook can follow.
- Stay authentic to the cuisine and traditional preparation.
- Include prep time, cook time, servings, and difficulty, plus useful tips in additional_info.

Set is_valid_recipe to true and fill in the full recipe.

%s`, recipeName, recipeSchemaDescription)
}

// appendFormatCorrection adds a corrective instruction for the single
// permitted reformatting retry.
func appendFormatCorrection(prompt, reason string) string {
	return prompt + fmt.Sprintf(`

Your previous response was rejected: %s.
Respond again with ONLY the JSON object described above, with non-empty "title", "ingredients", and "steps".`, reason)
}
