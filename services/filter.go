package services

import (
	"strings"

	"agriaid/models"
)

// FilterQuestions projects a cached snapshot through a search term and a
// category. A question matches when the category is "all" (or empty) or
// equal to its own, and the term is empty or a case-insensitive substring of
// its title or content. Pure function; preserves snapshot order.
func FilterQuestions(snapshot []models.Question, searchTerm, category string) []models.Question {
	term := strings.ToLower(strings.TrimSpace(searchTerm))
	out := make([]models.Question, 0, len(snapshot))
	for _, q := range snapshot {
		if category != "" && category != "all" && q.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(q.Title), term) &&
			!strings.Contains(strings.ToLower(q.Content), term) {
			continue
		}
		out = append(out, q)
	}
	return out
}
