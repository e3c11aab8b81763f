package models

import "time"

// ProposedStudent is the admin shortlist junction: a student put forward for
// a project, before the student has answered.
type ProposedStudent struct {
	ProjectID int64     `json:"projectId" db:"project_id"`
	StudentID int64     `json:"studentId" db:"student_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Student *Student `json:"student,omitempty"`
}

// ProposalToStudent records a shortlisted student's own answer.
// Accepted is tri-state: nil while pending, then true or false.
type ProposalToStudent struct {
	ProjectID   int64      `json:"projectId" db:"project_id"`
	StudentID   int64      `json:"studentId" db:"student_id"`
	Accepted    *bool      `json:"accepted" db:"accepted"`
	RespondedAt *time.Time `json:"respondedAt,omitempty" db:"responded_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Student *Student `json:"student,omitempty"`
}
