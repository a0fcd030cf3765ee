package domain

import "context"

// Repositories groups the repository accessors. *postgres.Store and
// *memory.Store satisfy it, as does the view handed to a transaction body.
type Repositories interface {
	Users() UserRepository
	Tasks() TaskRepository
	Participants() ParticipantRepository
	Comments() CommentRepository
	Audit() AuditRepository
}

// Store is a Repositories that can run a unit of work atomically. fn must
// only use the Repositories it receives; returning an error rolls back.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn func(tx Repositories) error) error
}
