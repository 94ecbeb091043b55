package repository

import (
	"context"
	"errors"
	"time"

	"shindi/internal/model"
)

// Sentinel errors shared by all Store implementations.
var (
	// ErrLeadExists is returned by CreateLead when the session already has a
	// lead. Lead creation is at-most-once per session.
	ErrLeadExists = errors.New("lead already exists for session")

	// ErrLeadNotFound is returned when a lead id does not exist.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrSessionNotFound is returned by operations that require an existing
	// session.
	ErrSessionNotFound = errors.New("session not found")
)

// Store is the persistence boundary of the conversation pipeline. The
// production implementation is PostgresStore; tests use MemoryStore.
type Store interface {
	// Migrate creates tables and indexes if they do not exist.
	Migrate(ctx context.Context) error

	// GetSession returns the session for the key, or (nil, nil) if unknown.
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)

	// SaveSession upserts the full session state.
	SaveSession(ctx context.Context, session *model.Session) error

	// DeleteExpiredSessions removes sessions idle for longer than maxAge and
	// returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, maxAge time.Duration) (int64, error)

	// ListAvailableApartments returns all available catalog apartments in
	// stable catalog order.
	ListAvailableApartments(ctx context.Context) ([]model.Apartment, error)

	// SearchApartments returns the available apartments matching a
	// preference-shaped filter, in stable catalog order.
	SearchApartments(ctx context.Context, prefs model.UserPreferences) ([]model.Apartment, error)

	// CreateLead persists a new lead. Returns ErrLeadExists if the session
	// already produced one.
	CreateLead(ctx context.Context, lead *model.Lead) error

	// ListLeads returns up to limit leads, newest first.
	ListLeads(ctx context.Context, limit int) ([]model.Lead, error)

	// UpdateLeadStatus moves a lead to a new board status. Returns
	// ErrLeadNotFound for unknown ids. The caller validates the status.
	UpdateLeadStatus(ctx context.Context, leadID, status string) error

	// LeadStats aggregates the lead pipeline.
	LeadStats(ctx context.Context) (*model.LeadStats, error)

	// Close releases underlying resources.
	Close() error
}
