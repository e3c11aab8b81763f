package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin        RoleType = "ADMIN"
	RoleEntrepreneur RoleType = "ENTREPRENEUR"
	RoleStudent      RoleType = "STUDENT"
)
