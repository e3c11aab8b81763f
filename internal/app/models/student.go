package models

// Student defines the student model based on the 'students' table.
// Available is the capacity flag toggled by the project lifecycle: it drops
// to false when an entrepreneur selects the student and comes back to true
// when the project completes.
type Student struct {
	ID        int64    `json:"id" db:"id" example:"1"`
	UserID    int64    `json:"userId" db:"user_id" example:"5"`
	School    string   `json:"school" db:"school" example:"ENSCI"`
	Specialty string   `json:"specialty" db:"specialty" example:"UI/UX"`
	Skills    []string `json:"skills" db:"skills"`
	Bio       string   `json:"bio,omitempty" db:"bio"`
	Available bool     `json:"available" db:"available"`

	// Relations (populated when needed)
	User *User `json:"user,omitempty"`
}

// Entrepreneur defines the entrepreneur model based on the 'entrepreneurs' table
type Entrepreneur struct {
	ID          int64  `json:"id" db:"id" example:"1"`
	UserID      int64  `json:"userId" db:"user_id" example:"3"`
	CompanyName string `json:"companyName" db:"company_name" example:"Atelier Nord"`
	CompanyRole string `json:"companyRole,omitempty" db:"company_role" example:"Founder"`
	Phone       string `json:"phone,omitempty" db:"phone"`

	// Relations (populated when needed)
	User *User `json:"user,omitempty"`
}
