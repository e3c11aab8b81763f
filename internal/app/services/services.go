package services

// Services defined in this package:
// - AuthService: registration, login, refresh token rotation
// - LifecycleService: applies project lifecycle transitions atomically
// - AvailabilityService: owns the student availability flag
// - PaymentService: gateway intents, confirmation, webhooks, tips
// - ProjectService: project CRUD around the lifecycle
// - ProposalService: admin shortlist and student answers
// - MessageService: message groups and chat
// - ReviewService: reviews on completed projects
// - StudentService: student profile reads and updates
