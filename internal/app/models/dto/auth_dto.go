package dto

// RegisterRequest represents a registration request for an entrepreneur or student
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email" example:"jeanne@studio.fr"`
	Password  string `json:"password" binding:"required,min=8" example:"s3cret-pass"`
	FirstName string `json:"firstName" binding:"required" example:"Jeanne"`
	LastName  string `json:"lastName" binding:"required" example:"Moreau"`
	RoleType  string `json:"roleType" binding:"required,oneof=ENTREPRENEUR STUDENT" example:"STUDENT"`

	// Entrepreneur profile fields
	CompanyName string `json:"companyName,omitempty" example:"Atelier Nord"`
	CompanyRole string `json:"companyRole,omitempty" example:"Founder"`

	// Student profile fields
	School    string   `json:"school,omitempty" example:"ENSCI"`
	Specialty string   `json:"specialty,omitempty" example:"UI/UX"`
	Skills    []string `json:"skills,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse carries a token pair back to the client
type TokenResponse struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        int    `json:"expiresIn" example:"3600"`
	RefreshExpiresIn int    `json:"refreshExpiresIn" example:"2592000"`
	TokenType        string `json:"tokenType" example:"Bearer"`
}

// UserResponse is the public view of a user account
type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	RoleType  string `json:"roleType" example:"STUDENT"`
}
