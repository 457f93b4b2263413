// Package flashcards stores and serves question/answer cards, generated
// from keywords or written by hand.
package flashcards

import "time"

// Flashcard is a single review card.
type Flashcard struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	StudyMaterialID *string   `json:"studyMaterialId"`
	Front           string    `json:"front"`
	Back            string    `json:"back"`
	Mastered        bool      `json:"mastered"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Draft is a card to be inserted.
type Draft struct {
	Front string
	Back  string
}

// Update holds the fields to change; nil fields are left as stored.
type Update struct {
	Front *string
	Back  *string
}

// Stats summarizes a user's progress.
type Stats struct {
	Total    int `json:"total"`
	Mastered int `json:"mastered"`
}
