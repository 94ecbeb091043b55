package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shindi/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore is the production Store backed by PostgreSQL. Session
// preferences, histories and lead snapshots live in JSONB columns.
type PostgresStore struct {
	db *sqlx.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a connection pool and verifies it with a ping.
func NewPostgresStore(dsn string, maxConn, maxIdleConn int) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id           TEXT PRIMARY KEY,
		preferences          JSONB NOT NULL DEFAULT '{}',
		conversation_history JSONB NOT NULL DEFAULT '[]',
		lead_captured        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS leads (
		id                   TEXT PRIMARY KEY,
		session_id           TEXT NOT NULL UNIQUE,
		name                 TEXT NOT NULL,
		phone                TEXT NOT NULL,
		email                TEXT,
		language             TEXT NOT NULL DEFAULT 'unknown',
		preferences          JSONB NOT NULL DEFAULT '{}',
		suggested_apartments JSONB NOT NULL DEFAULT '[]',
		chat_history         JSONB NOT NULL DEFAULT '[]',
		status               TEXT NOT NULL DEFAULT 'new',
		created_at           TIMESTAMPTZ NOT NULL,
		updated_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads (status)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id                  BIGSERIAL PRIMARY KEY,
		project_name        TEXT NOT NULL,
		city                TEXT NOT NULL,
		neighborhood        TEXT NOT NULL,
		construction_status TEXT NOT NULL,
		expected_completion TEXT,
		developer_name      TEXT NOT NULL,
		payment_plans       JSONB NOT NULL DEFAULT '[]',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS apartments (
		id                      BIGSERIAL PRIMARY KEY,
		project_id              TEXT NOT NULL,
		project_name            TEXT NOT NULL,
		city                    TEXT NOT NULL,
		neighborhood            TEXT NOT NULL,
		total_area              DOUBLE PRECISION NOT NULL,
		rooms                   INTEGER NOT NULL,
		floor                   INTEGER NOT NULL,
		view_type               TEXT NOT NULL,
		has_balcony             BOOLEAN NOT NULL DEFAULT FALSE,
		balcony_size            DOUBLE PRECISION,
		total_price             DOUBLE PRECISION NOT NULL,
		min_initial_installment DOUBLE PRECISION NOT NULL,
		monthly_payment         DOUBLE PRECISION NOT NULL,
		installment_duration    INTEGER NOT NULL,
		availability_status     TEXT NOT NULL DEFAULT 'available',
		construction_status     TEXT NOT NULL,
		expected_completion     TEXT,
		developer_name          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_apartments_city ON apartments (city)`,
	`CREATE INDEX IF NOT EXISTS idx_apartments_availability ON apartments (availability_status)`,
}

// Migrate creates tables and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// GetSession loads a session by key, returning (nil, nil) when unknown.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	query := `
		SELECT session_id, preferences, conversation_history, lead_captured, created_at, updated_at
		FROM sessions
		WHERE session_id = $1
	`
	err := s.db.GetContext(ctx, &session, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

// SaveSession upserts the full session state.
func (s *PostgresStore) SaveSession(ctx context.Context, session *model.Session) error {
	query := `
		INSERT INTO sessions (session_id, preferences, conversation_history, lead_captured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			preferences          = EXCLUDED.preferences,
			conversation_history = EXCLUDED.conversation_history,
			lead_captured        = EXCLUDED.lead_captured,
			updated_at           = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		session.SessionID,
		session.Preferences,
		session.ConversationHistory,
		session.LeadCaptured,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions idle for longer than maxAge.
func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

const apartmentColumns = `
	id, project_id, project_name, city, neighborhood, total_area, rooms, floor,
	view_type, has_balcony, balcony_size, total_price, min_initial_installment,
	monthly_payment, installment_duration, availability_status,
	construction_status, expected_completion, developer_name`

// ListAvailableApartments returns all available apartments in catalog order.
func (s *PostgresStore) ListAvailableApartments(ctx context.Context) ([]model.Apartment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM apartments
		WHERE availability_status = $1
		ORDER BY id
	`, apartmentColumns)

	apartments := []model.Apartment{}
	if err := s.db.SelectContext(ctx, &apartments, query, model.AvailabilityAvailable); err != nil {
		return nil, fmt.Errorf("failed to list apartments: %w", err)
	}
	return apartments, nil
}

// SearchApartments pushes the preference predicates down to SQL. The clause
// set mirrors matcher.Matches; both are conjunctive with inclusive bounds.
func (s *PostgresStore) SearchApartments(ctx context.Context, prefs model.UserPreferences) ([]model.Apartment, error) {
	whereClauses := []string{"availability_status = $1"}
	args := []interface{}{model.AvailabilityAvailable}
	argIndex := 2

	addClause := func(clause string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(clause, argIndex))
		args = append(args, value)
		argIndex++
	}

	if prefs.City != nil {
		addClause("city = $%d", *prefs.City)
	}
	if prefs.DownPayment != nil {
		addClause("min_initial_installment <= $%d", *prefs.DownPayment)
	}
	if prefs.MaxBudget != nil {
		addClause("total_price <= $%d", *prefs.MaxBudget)
	}
	if prefs.BudgetMax != nil {
		addClause("total_price <= $%d", *prefs.BudgetMax)
	}
	if prefs.MinSize != nil {
		addClause("total_area >= $%d", *prefs.MinSize)
	}
	if prefs.MaxSize != nil {
		addClause("total_area <= $%d", *prefs.MaxSize)
	}
	if prefs.Rooms != nil {
		addClause("rooms = $%d", *prefs.Rooms)
	}
	if prefs.MinFloor != nil {
		addClause("floor >= $%d", *prefs.MinFloor)
	}
	if prefs.MaxFloor != nil {
		addClause("floor <= $%d", *prefs.MaxFloor)
	}
	if prefs.ViewType != nil {
		addClause("view_type = $%d", *prefs.ViewType)
	}
	if prefs.RequiresBalcony != nil && *prefs.RequiresBalcony {
		whereClauses = append(whereClauses, "has_balcony = TRUE")
	}
	if len(prefs.ConstructionStatus) > 0 {
		addClause("construction_status = ANY($%d)", pq.Array(prefs.ConstructionStatus))
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM apartments
		WHERE %s
		ORDER BY id
	`, apartmentColumns, strings.Join(whereClauses, " AND "))

	apartments := []model.Apartment{}
	if err := s.db.SelectContext(ctx, &apartments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search apartments: %w", err)
	}
	return apartments, nil
}

// CreateLead inserts a new lead. The unique constraint on session_id is the
// race guard: two concurrent qualifying turns for one session cannot both
// insert, and the loser gets ErrLeadExists.
func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = model.LeadStatusNew
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	query := `
		INSERT INTO leads (id, session_id, name, phone, email, language, preferences,
			suggested_apartments, chat_history, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		lead.ID,
		lead.SessionID,
		lead.Name,
		lead.Phone,
		lead.Email,
		lead.Language,
		lead.Preferences,
		lead.SuggestedApartments,
		lead.ChatHistory,
		lead.Status,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	if rows == 0 {
		return ErrLeadExists
	}
	return nil
}

// ListLeads returns up to limit leads, newest first.
func (s *PostgresStore) ListLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	query := `
		SELECT id, session_id, name, phone, email, language, preferences,
			suggested_apartments, chat_history, status, created_at, updated_at
		FROM leads
		ORDER BY created_at DESC
		LIMIT $1
	`
	leads := []model.Lead{}
	if err := s.db.SelectContext(ctx, &leads, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// UpdateLeadStatus moves a lead to a new board status.
func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, leadID, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = $2, updated_at = NOW() WHERE id = $1`,
		leadID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	if rows == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// LeadStats aggregates the lead pipeline for the dashboard.
func (s *PostgresStore) LeadStats(ctx context.Context) (*model.LeadStats, error) {
	stats := &model.LeadStats{
		ByStatus:   map[string]int{},
		ByLanguage: map[string]int{},
	}

	if err := s.db.GetContext(ctx, &stats.Total, `SELECT COUNT(*) FROM leads`); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.TodayCount,
		`SELECT COUNT(*) FROM leads WHERE created_at >= DATE_TRUNC('day', NOW())`); err != nil {
		return nil, fmt.Errorf("failed to count today's leads: %w", err)
	}

	type bucket struct {
		Key   string `db:"key"`
		Count int    `db:"count"`
	}

	var byStatus []bucket
	if err := s.db.SelectContext(ctx, &byStatus,
		`SELECT status AS key, COUNT(*) AS count FROM leads GROUP BY status`); err != nil {
		return nil, fmt.Errorf("failed to aggregate lead statuses: %w", err)
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byLanguage []bucket
	if err := s.db.SelectContext(ctx, &byLanguage,
		`SELECT language AS key, COUNT(*) AS count FROM leads GROUP BY language`); err != nil {
		return nil, fmt.Errorf("failed to aggregate lead languages: %w", err)
	}
	for _, b := range byLanguage {
		stats.ByLanguage[b.Key] = b.Count
	}

	return stats, nil
}

// ResetCatalog wipes projects and apartments. Used by the seeder only.
func (s *PostgresStore) ResetCatalog(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM apartments`); err != nil {
		return fmt.Errorf("failed to clear apartments: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}
	return nil
}

// InsertProject inserts one project.
func (s *PostgresStore) InsertProject(ctx context.Context, p *model.Project) error {
	query := `
		INSERT INTO projects (project_name, city, neighborhood, construction_status,
			expected_completion, developer_name, payment_plans)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ProjectName, p.City, p.Neighborhood, p.ConstructionStatus,
		p.ExpectedCompletion, p.DeveloperName, p.PaymentPlans,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// InsertApartments inserts a batch of apartments inside one transaction.
func (s *PostgresStore) InsertApartments(ctx context.Context, apartments []model.Apartment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO apartments (project_id, project_name, city, neighborhood, total_area,
			rooms, floor, view_type, has_balcony, balcony_size, total_price,
			min_initial_installment, monthly_payment, installment_duration,
			availability_status, construction_status, expected_completion, developer_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range apartments {
		_, err := stmt.ExecContext(ctx,
			a.ProjectID, a.ProjectName, a.City, a.Neighborhood, a.TotalArea,
			a.Rooms, a.Floor, a.ViewType, a.HasBalcony, a.BalconySize, a.TotalPrice,
			a.MinInitialInstallment, a.MonthlyPayment, a.InstallmentDuration,
			a.AvailabilityStatus, a.ConstructionStatus, a.ExpectedCompletion, a.DeveloperName,
		)
		if err != nil {
			return fmt.Errorf("failed to insert apartment %s: %w", a.ProjectName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
