package dto

import (
	"time"

	"github.com/tiroapp/tiro-backend/internal/app/models"
)

// CreateReviewRequest submits a review for a completed project
type CreateReviewRequest struct {
	ProjectID int64  `json:"projectId" binding:"required"`
	StudentID int64  `json:"studentId" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5" example:"5"`
	Comment   string `json:"comment,omitempty" binding:"max=2000"`
}

// ReviewResponse is the public view of a review
type ReviewResponse struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"projectId"`
	StudentID      int64     `json:"studentId"`
	EntrepreneurID int64     `json:"entrepreneurId"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// FromReview converts a models.Review to a ReviewResponse
func FromReview(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		StudentID:      r.StudentID,
		EntrepreneurID: r.EntrepreneurID,
		Rating:         r.Rating,
		Comment:        r.Comment,
		CreatedAt:      r.CreatedAt,
	}
}

// StudentRatingResponse aggregates a student's reviews
type StudentRatingResponse struct {
	StudentID     int64            `json:"studentId"`
	AverageRating float64          `json:"averageRating" example:"4.6"`
	ReviewCount   int64            `json:"reviewCount"`
	Reviews       []ReviewResponse `json:"reviews"`
}
