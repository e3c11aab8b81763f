package dto

import "github.com/tiroapp/tiro-backend/internal/app/models"

// UpdateStudentProfileRequest updates the caller's own student profile
type UpdateStudentProfileRequest struct {
	School    string   `json:"school,omitempty"`
	Specialty string   `json:"specialty,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Bio       string   `json:"bio,omitempty" binding:"max=2000"`
}

// StudentResponse is the public view of a student profile
type StudentResponse struct {
	ID        int64    `json:"id"`
	UserID    int64    `json:"userId"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	School    string   `json:"school,omitempty"`
	Specialty string   `json:"specialty,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Available bool     `json:"available"`
}

// FromStudent converts a models.Student to a StudentResponse
func FromStudent(s *models.Student) StudentResponse {
	resp := StudentResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		School:    s.School,
		Specialty: s.Specialty,
		Skills:    s.Skills,
		Bio:       s.Bio,
		Available: s.Available,
	}
	if s.User != nil {
		resp.FirstName = s.User.FirstName
		resp.LastName = s.User.LastName
	}
	return resp
}
