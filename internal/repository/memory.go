package repository

import (
	"context"
	"sync"
	"time"

	"shindi/internal/matcher"
	"shindi/internal/model"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local experiments. It
// mirrors the PostgresStore semantics, including the one-lead-per-session
// guard.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]model.Session
	leads      []model.Lead
	bySession  map[string]struct{}
	apartments []model.Apartment
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  map[string]model.Session{},
		bySession: map[string]struct{}{},
	}
}

// Migrate is a no-op for the in-memory store.
func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// SetApartments replaces the catalog. Test setup helper.
func (s *MemoryStore) SetApartments(apartments []model.Apartment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apartments = append([]model.Apartment(nil), apartments...)
}

func (s *MemoryStore) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := session
	copied.ConversationHistory = append(model.MessageList(nil), session.ConversationHistory...)
	return &copied, nil
}

func (s *MemoryStore) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	copied.ConversationHistory = append(model.MessageList(nil), session.ConversationHistory...)
	s.sessions[session.SessionID] = copied
	return nil
}

func (s *MemoryStore) DeleteExpiredSessions(ctx context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-maxAge)
	var removed int64
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) ListAvailableApartments(ctx context.Context) ([]model.Apartment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	available := make([]model.Apartment, 0, len(s.apartments))
	for _, apt := range s.apartments {
		if apt.AvailabilityStatus == model.AvailabilityAvailable {
			available = append(available, apt)
		}
	}
	return available, nil
}

func (s *MemoryStore) SearchApartments(ctx context.Context, prefs model.UserPreferences) ([]model.Apartment, error) {
	available, err := s.ListAvailableApartments(ctx)
	if err != nil {
		return nil, err
	}
	return matcher.Match(available, prefs), nil
}

func (s *MemoryStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bySession[lead.SessionID]; exists {
		return ErrLeadExists
	}
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
	s.bySession[lead.SessionID] = struct{}{}
	s.leads = append(s.leads, *lead)
	return nil
}

func (s *MemoryStore) ListLeads(ctx context.Context, limit int) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Newest first.
	leads := make([]model.Lead, 0, len(s.leads))
	for i := len(s.leads) - 1; i >= 0 && len(leads) < limit; i-- {
		leads = append(leads, s.leads[i])
	}
	return leads, nil
}

func (s *MemoryStore) UpdateLeadStatus(ctx context.Context, leadID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.leads {
		if s.leads[i].ID == leadID {
			s.leads[i].Status = status
			s.leads[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrLeadNotFound
}

func (s *MemoryStore) LeadStats(ctx context.Context) (*model.LeadStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.LeadStats{
		Total:      len(s.leads),
		ByStatus:   map[string]int{},
		ByLanguage: map[string]int{},
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, lead := range s.leads {
		stats.ByStatus[lead.Status]++
		stats.ByLanguage[lead.Language]++
		if !lead.CreatedAt.Before(today) {
			stats.TodayCount++
		}
	}
	return stats, nil
}
