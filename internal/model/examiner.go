package model

import (
	"time"

	"github.com/google/uuid"
)

// Examiner authors exams and reviews attempts.
type Examiner struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterExaminerRequest is the payload for examiner sign-up.
type RegisterExaminerRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// ExaminerLoginRequest is the payload for examiner login.
type ExaminerLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
