package domain

import "context"

// Repositories groups the repositories that share one connection or transaction.
type Repositories struct {
	Events       EventRepository
	Participants ParticipantRepository
	Payments     PaymentRepository
	Users        UserRepository
	Clients      ClientRepository
	Hosts        HostRepository
	Admins       AdminRepository
	Reviews      ReviewRepository
	Applications HostApplicationRepository
}

// Store is the unit-of-work boundary over persistent state.
type Store interface {
	// Repos returns repositories bound to the connection pool (no transaction).
	Repos() Repositories
	// WithinTx runs fn in one transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
