package store

import "agriaid/models"

// unionAnswers appends each added answer whose id is not already present.
// Existing entries keep their position; append order is the order the store
// accepted the writes.
func unionAnswers(existing, add []models.Answer) []models.Answer {
	seen := make(map[string]bool, len(existing))
	for _, a := range existing {
		seen[a.ID] = true
	}
	for _, a := range add {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		existing = append(existing, a)
	}
	return existing
}

// unionMembers adds each member not already in the set.
func unionMembers(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[m] = true
	}
	for _, m := range add {
		if seen[m] {
			continue
		}
		seen[m] = true
		existing = append(existing, m)
	}
	return existing
}

func applyUpdate(q *models.Question, u Update) {
	if len(u.AddAnswers) > 0 {
		q.Answers = unionAnswers(q.Answers, u.AddAnswers)
	}
	if len(u.AddLikedBy) > 0 {
		q.LikedBy = unionMembers(q.LikedBy, u.AddLikedBy)
	}
	if u.SetLikes != nil {
		q.Likes = *u.SetLikes
	}
	q.Likes += u.IncLikes
}
