package models

import "time"

// Project defines the project model based on the 'projects' table.
// Status is the lifecycle state variable; SelectedStudentID stays nil until
// the entrepreneur picks a student at the selection step.
type Project struct {
	ID                int64      `json:"id" db:"id" example:"1"`
	Title             string     `json:"title" db:"title" example:"Brand identity refresh"`
	Devis             string     `json:"devis,omitempty" db:"devis"` // quote text prepared by admin
	Price             float64    `json:"price" db:"price" example:"500"`
	Status            string     `json:"status" db:"status" example:"STEP1"`
	EntrepreneurID    int64      `json:"entrepreneurId" db:"entrepreneur_id"`
	SelectedStudentID *int64     `json:"selectedStudentId,omitempty" db:"selected_student_id"`
	Pack              string     `json:"pack,omitempty" db:"pack" example:"logo"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`

	// Relations (populated when needed)
	Entrepreneur    *Entrepreneur `json:"entrepreneur,omitempty"`
	SelectedStudent *Student      `json:"selectedStudent,omitempty"`
}

// ProjectTransition records one applied lifecycle transition. The unique
// idempotency key is what makes re-running a transition handler safe.
type ProjectTransition struct {
	ID             int64     `json:"id" db:"id"`
	ProjectID      int64     `json:"projectId" db:"project_id"`
	FromStatus     string    `json:"fromStatus" db:"from_status"`
	ToStatus       string    `json:"toStatus" db:"to_status"`
	Event          string    `json:"event" db:"event"`
	IdempotencyKey string    `json:"idempotencyKey" db:"idempotency_key"`
	AppliedAt      time.Time `json:"appliedAt" db:"applied_at"`
}
