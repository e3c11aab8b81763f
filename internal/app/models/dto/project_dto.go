package dto

import (
	"time"

	"github.com/tiroapp/tiro-backend/internal/app/models"
)

// CreateProjectRequest represents a project creation request (entrepreneur)
type CreateProjectRequest struct {
	Title string `json:"title" binding:"required" example:"Brand identity refresh"`
	Pack  string `json:"pack,omitempty" example:"logo"`
}

// UpdateQuoteRequest sets the quote text and price on a project (admin,
// only before the payment step)
type UpdateQuoteRequest struct {
	Devis string  `json:"devis" binding:"required"`
	Price float64 `json:"price" binding:"required,gt=0" example:"500"`
}

// SelectStudentRequest is the entrepreneur's choice at the selection step
type SelectStudentRequest struct {
	StudentID int64 `json:"studentId" binding:"required" example:"7"`
}

// ProposeStudentRequest shortlists a student for a project (admin)
type ProposeStudentRequest struct {
	StudentID int64 `json:"studentId" binding:"required" example:"7"`
}

// ProposalResponseRequest is a student's answer to a proposal
type ProposalResponseRequest struct {
	Accepted *bool `json:"accepted" binding:"required"`
}

// ProjectResponse is the public view of a project
type ProjectResponse struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Devis             string    `json:"devis,omitempty"`
	Price             float64   `json:"price"`
	Status            string    `json:"status" example:"STEP3"`
	EntrepreneurID    int64     `json:"entrepreneurId"`
	SelectedStudentID *int64    `json:"selectedStudentId,omitempty"`
	Pack              string    `json:"pack,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// FromProject converts a models.Project to a ProjectResponse
func FromProject(p *models.Project) ProjectResponse {
	return ProjectResponse{
		ID:                p.ID,
		Title:             p.Title,
		Devis:             p.Devis,
		Price:             p.Price,
		Status:            p.Status,
		EntrepreneurID:    p.EntrepreneurID,
		SelectedStudentID: p.SelectedStudentID,
		Pack:              p.Pack,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// TransitionResponse reports the outcome of a lifecycle transition
type TransitionResponse struct {
	ProjectID      int64  `json:"projectId"`
	Status         string `json:"status" example:"STEP4"`
	Event          string `json:"event" example:"SELECT_STUDENT"`
	AlreadyApplied bool   `json:"alreadyApplied"`
}
