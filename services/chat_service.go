package services

import (
	"fmt"
	"strings"

	"agriaid/models"
)

// QuestionSummary points the chat answer back at the forum threads it was
// grounded on.
type QuestionSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
}

// ChatService answers free-form farming questions with Gemini, using the
// cached forum snapshot as retrieval context: threads whose title or content
// mention the question's keywords are folded into the prompt.
type ChatService struct {
	cache *QuestionCache
}

func NewChatService(cache *QuestionCache) *ChatService {
	return &ChatService{cache: cache}
}

func (s *ChatService) Ask(question string, topK int) (string, []QuestionSummary, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, fmt.Errorf("question is empty")
	}
	if topK <= 0 {
		topK = 3
	}

	matches := s.retrieve(question, topK)

	var context strings.Builder
	var sources []QuestionSummary
	for _, q := range matches {
		context.WriteString(fmt.Sprintf("Title: %s\nContent: %s\n", q.Title, q.Content))
		for _, a := range q.Answers {
			context.WriteString(fmt.Sprintf("Answer: %s\n", a.Content))
		}
		context.WriteString("\n")
		sources = append(sources, QuestionSummary{ID: q.ID, Title: q.Title, Preview: preview(q.Content)})
	}

	prompt := "You are an agricultural expert helping farmers.\n\n"
	if context.Len() > 0 {
		prompt += fmt.Sprintf("Context from the community forum:\n\n%s\n", context.String())
	}
	prompt += fmt.Sprintf("Question: %s\n\nAnswer concisely.", question)

	answer, err := CallGemini(prompt)
	if err != nil {
		return "", nil, err
	}
	return answer, sources, nil
}

// retrieve scores cached questions by how many of the question's keywords
// they match, reusing the view filter for the per-keyword match.
func (s *ChatService) retrieve(question string, topK int) []models.Question {
	snapshot := s.cache.Snapshot()
	scores := make(map[string]int)
	for _, kw := range strings.Fields(question) {
		for _, q := range FilterQuestions(snapshot, kw, "all") {
			scores[q.ID]++
		}
	}

	var matched []models.Question
	for _, q := range snapshot {
		if scores[q.ID] > 0 {
			matched = append(matched, q)
		}
	}
	// snapshot is newest-first; prefer stronger keyword overlap first
	for i := 0; i < len(matched); i++ {
		for j := i + 1; j < len(matched); j++ {
			if scores[matched[j].ID] > scores[matched[i].ID] {
				matched[i], matched[j] = matched[j], matched[i]
			}
		}
	}
	if len(matched) > topK {
		matched = matched[:topK]
	}
	return matched
}

func preview(content string) string {
	if len(content) > 80 {
		return content[:80] + "..."
	}
	return content
}
