package model

import (
	"github.com/google/uuid"
)

// Question is a single multiple-choice question of an exam.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	Position      int       `json:"position"`
	Text          string    `json:"question_text"`
	Options       []string  `json:"options"`
	CorrectOption int       `json:"correct_option"`
}

// PublicQuestion is a question without the correct answer, sent to students.
type PublicQuestion struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"question_text"`
	Options []string  `json:"options"`
}

// NewQuestionRequest is one question inside a CreateExamRequest.
// The correct index is checked against the options by the validator package.
type NewQuestionRequest struct {
	Text    string   `json:"text" binding:"required,min=1,max=2000"`
	Options []string `json:"options" binding:"required,min=2,max=10,dive,required,max=500"`
	Correct *int     `json:"correct" binding:"required,min=0"`
}

// AnswerKey returns the correct option of every question, by position.
func AnswerKey(questions []Question) []int {
	key := make([]int, len(questions))
	for i, q := range questions {
		key[i] = q.CorrectOption
	}
	return key
}
