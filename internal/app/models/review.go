package models

import "time"

// Review defines the review model based on the 'reviews' table.
// The (project, student, entrepreneur) triple carries a unique index, so a
// second review for the same triple fails at the storage layer.
type Review struct {
	ID             int64     `json:"id" db:"id" example:"1"`
	ProjectID      int64     `json:"projectId" db:"project_id"`
	StudentID      int64     `json:"studentId" db:"student_id"`
	EntrepreneurID int64     `json:"entrepreneurId" db:"entrepreneur_id"`
	Rating         int       `json:"rating" db:"rating" example:"5"`
	Comment        string    `json:"comment,omitempty" db:"comment"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Entrepreneur *Entrepreneur `json:"entrepreneur,omitempty"`
}
