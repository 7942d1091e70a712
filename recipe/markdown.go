package recipe

import (
	"fmt"
	"strings"
)

// Markdown renders the recipe as a markdown document with the conventional
// sections: title, ingredients, numbered instructions, and additional
// information when timing or tips are present.
func (r *Recipe) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.Title)

	b.WriteString("## Ingredients\n\n")
	for _, ing := range r.Ingredients {
		line := "- "
		if !ing.Quantity.IsZero() {
			line += ing.Quantity.String()
			if ing.Unit != "" {
				line += " " + ing.Unit
			}
			line += " "
		}
		line += ing.Name
		b.WriteString(line + "\n")
	}

	b.WriteString("\n## Instructions\n\n")
	for i, step := range r.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	info := r.additionalInfoLines()
	if len(info) > 0 {
		b.WriteString("\n## Additional Information\n\n")
		for _, line := range info {
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

func (r *Recipe) additionalInfoLines() []string {
	var lines []string
	if r.PrepTime != "" {
		lines = append(lines, "- **Prep Time:** "+r.PrepTime)
	}
	if r.CookTime != "" {
		lines = append(lines, "- **Cook Time:** "+r.CookTime)
	}
	if r.TotalTime != "" {
		lines = append(lines, "- **Total Time:** "+r.TotalTime)
	}
	if r.Servings > 0 {
		lines = append(lines, fmt.Sprintf("- **Servings:** %d", r.Servings))
	}
	if r.Difficulty != "" {
		lines = append(lines, "- **Difficulty:** "+string(r.Difficulty))
	}
	if r.Cuisine != "" {
		lines = append(lines, "- **Cuisine:** "+r.Cuisine)
	}
	for _, tip := range r.AdditionalInfo {
		lines = append(lines, "- "+tip)
	}
	return lines
}
