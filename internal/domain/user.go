package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Role is the account role carried in the auth token.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleHost   Role = "HOST"
	RoleClient Role = "CLIENT"
)

// UserStatus is the account state of a user.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
)

// User represents a registered account
// swagger:model User
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Client is the profile of a user who joins events.
// swagger:model Client
type Client struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	IsDeleted bool       `json:"is_deleted"`
	Status    UserStatus `json:"status"`
}

// CanBook reports whether the client may join or leave events.
func (c *Client) CanBook() bool {
	return !c.IsDeleted && c.Status == UserActive
}

// Host is the profile of a user who owns events.
// swagger:model Host
type Host struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Income      decimal.Decimal `json:"income"`
	Rating      decimal.Decimal `json:"rating"`
	RatingCount int             `json:"rating_count"`
}

// Admin is the platform account that accrues the platform cut.
type Admin struct {
	ID     string          `json:"id"`
	UserID string          `json:"user_id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Income decimal.Decimal `json:"income"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Email  string
	Role   Role
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, role Role, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated actor.
type TokenVerifier interface {
	Verify(token string) (*Actor, error)
}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// HostApplicationStatus is the review state of a client's request to become a host.
type HostApplicationStatus string

const (
	ApplicationPending  HostApplicationStatus = "PENDING"
	ApplicationApproved HostApplicationStatus = "APPROVED"
	ApplicationRejected HostApplicationStatus = "REJECTED"
)

// HostApplication is a client's request to be promoted to host.
// swagger:model HostApplication
type HostApplication struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	Status    HostApplicationStatus `json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Decide moves a PENDING application to next. Decided applications are final.
func (a *HostApplication) Decide(next HostApplicationStatus) error {
	if a.Status != ApplicationPending {
		return fmt.Errorf("%w: host application %s is %s", ErrInvalidTransition, a.ID, a.Status)
	}
	a.Status = next
	return nil
}

// ClientRegistration is the input of a self-service client sign-up.
type ClientRegistration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	// Create fails with ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIDForUpdate(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsWithRole(ctx context.Context, role Role) (bool, error)
	UpdateStatus(ctx context.Context, id string, status UserStatus) error
	UpdateRole(ctx context.Context, id string, role Role) error
}

// ClientRepository reads client profiles joined with their account status.
type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	GetByEmail(ctx context.Context, email string) (*Client, error)
	GetByID(ctx context.Context, id string) (*Client, error)
	// MarkDeleted soft-deletes the profile; the row stays for payment history.
	MarkDeleted(ctx context.Context, id string) error
}

// HostRepository defines storage operations for hosts.
type HostRepository interface {
	Create(ctx context.Context, host *Host) error
	GetByEmail(ctx context.Context, email string) (*Host, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Host, error)
	// AddIncome increments income in place.
	AddIncome(ctx context.Context, id string, amount decimal.Decimal) error
	UpdateRating(ctx context.Context, id string, rating decimal.Decimal, count int) error
}

// AdminRepository defines storage operations for the platform admin record.
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	// First returns the aggregate admin record that accrues platform income.
	First(ctx context.Context) (*Admin, error)
	AddIncome(ctx context.Context, id string, amount decimal.Decimal) error
}

// HostApplicationRepository defines storage operations for host applications.
type HostApplicationRepository interface {
	// Create fails with ErrAlreadyApplied if the user has a PENDING application.
	Create(ctx context.Context, app *HostApplication) error
	GetByIDForUpdate(ctx context.Context, id string) (*HostApplication, error)
	UpdateStatus(ctx context.Context, id string, status HostApplicationStatus) error
}

// AccountService covers self-service client accounts.
type AccountService interface {
	RegisterClient(ctx context.Context, in ClientRegistration) (*Client, error)
	ApplyForHost(ctx context.Context, actor Actor) (*HostApplication, error)
}

// AdminService covers admin decisions on accounts.
type AdminService interface {
	ApproveHostApplication(ctx context.Context, id string) (*Host, error)
	RejectHostApplication(ctx context.Context, id string) (*HostApplication, error)
	SuspendUser(ctx context.Context, userID string) (*User, error)
	UnsuspendUser(ctx context.Context, userID string) (*User, error)
}

// AuthService signs users in and seeds the platform admin.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	// SeedAdmin creates the admin account and its income record if no admin exists.
	SeedAdmin(ctx context.Context, email, password string) error
}
