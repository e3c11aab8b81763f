package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	StudentRepository      *StudentRepository
	EntrepreneurRepository *EntrepreneurRepository
	ProjectRepository      *ProjectRepository
	ProposalRepository     *ProposalRepository
	TransitionRepository   *TransitionRepository
	MessageRepository      *MessageRepository
	ReviewRepository       *ReviewRepository
	InvoiceRepository      *InvoiceRepository
	TokenRepository        *TokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(db),
		StudentRepository:      NewStudentRepository(db),
		EntrepreneurRepository: NewEntrepreneurRepository(db),
		ProjectRepository:      NewProjectRepository(db),
		ProposalRepository:     NewProposalRepository(db),
		TransitionRepository:   NewTransitionRepository(db),
		MessageRepository:      NewMessageRepository(db),
		ReviewRepository:       NewReviewRepository(db),
		InvoiceRepository:      NewInvoiceRepository(db),
		TokenRepository:        NewTokenRepository(db),
	}
}
