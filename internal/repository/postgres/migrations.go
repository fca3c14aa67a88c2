package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL CHECK (role IN ('ADMIN', 'HOST', 'CLIENT')),
		status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'SUSPENDED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS admins (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id),
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		income NUMERIC(14, 2) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS hosts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id),
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		income NUMERIC(14, 2) NOT NULL DEFAULT 0,
		rating NUMERIC(3, 2) NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS clients (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id),
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS host_applications (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'APPROVED', 'REJECTED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS ` + pendingApplicationIndex + `
		ON host_applications (user_id)
		WHERE status = 'PENDING'`,

	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		host_id UUID NOT NULL REFERENCES hosts(id),
		title TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity >= 0),
		status TEXT NOT NULL DEFAULT 'PENDING'
			CHECK (status IN ('PENDING', 'OPEN', 'FULL', 'COMPLETED', 'CANCELLED', 'REJECTED')),
		event_date TIMESTAMPTZ NOT NULL,
		joining_fee NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (joining_fee >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS event_participants (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id UUID NOT NULL REFERENCES events(id),
		client_id UUID NOT NULL REFERENCES clients(id),
		transaction_id TEXT NOT NULL UNIQUE,
		participant_status TEXT NOT NULL DEFAULT 'PENDING'
			CHECK (participant_status IN ('PENDING', 'CONFIRMED', 'LEFT')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS ` + activeParticipantIndex + `
		ON event_participants (event_id, client_id)
		WHERE participant_status <> 'LEFT'`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		transaction_id TEXT NOT NULL UNIQUE,
		event_id UUID NOT NULL REFERENCES events(id),
		client_id UUID NOT NULL REFERENCES clients(id),
		host_id UUID NOT NULL REFERENCES hosts(id),
		participant_id UUID UNIQUE REFERENCES event_participants(id),
		amount NUMERIC(12, 2) NOT NULL CHECK (amount >= 0),
		payment_status TEXT NOT NULL DEFAULT 'PENDING'
			CHECK (payment_status IN ('PENDING', 'PAID', 'CANCELLED', 'REFUNDED')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS payments_pending_created_at_idx
		ON payments (created_at)
		WHERE payment_status = 'PENDING'`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		event_id UUID NOT NULL REFERENCES events(id),
		client_id UUID NOT NULL REFERENCES clients(id),
		host_id UUID NOT NULL REFERENCES hosts(id),
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT ` + reviewUniqueConstraint + ` UNIQUE (event_id, client_id)
	)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logger.InfoContext(ctx, "migrations applied", "count", len(migrations))
	return nil
}
