package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"shindi/internal/logger"
	"shindi/internal/model"
	"shindi/internal/repository"
)

// Validation errors surfaced to the caller as rejected requests.
var (
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrInvalidStatus = errors.New("invalid lead status")
)

var phoneRe = regexp.MustCompile(`^\+?[0-9\s-]{8,15}$`)

// LeadService covers the sales-board side of leads: manual creation from the
// contact form, listing, status transitions and stats. The conversation
// pipeline creates its own leads through ChatService.
type LeadService struct {
	store repository.Store
	log   *logger.Logger
}

// NewLeadService creates the lead service.
func NewLeadService(store repository.Store, log *logger.Logger) *LeadService {
	return &LeadService{store: store, log: log.With("service", "lead")}
}

// CreateManual creates a lead from an explicit form submission. The phone
// must pass validation and the session must exist; its preferences and chat
// history are snapshotted into the lead. Nothing is mutated on rejection.
func (s *LeadService) CreateManual(ctx context.Context, req *model.LeadCreateRequest) (*model.Lead, error) {
	if !phoneRe.MatchString(req.Phone) {
		return nil, ErrInvalidPhone
	}

	session, err := s.store.GetSession(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, repository.ErrSessionNotFound
	}

	language := req.Language
	if language == "" {
		language = session.Preferences.LanguageOrDefault()
	}

	lead := &model.Lead{
		SessionID:           req.SessionID,
		Name:                req.Name,
		Phone:               req.Phone,
		Email:               req.Email,
		Language:            language,
		Preferences:         session.Preferences,
		SuggestedApartments: model.ApartmentList{},
		ChatHistory:         append(model.MessageList{}, session.ConversationHistory...),
		Status:              model.LeadStatusNew,
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, err
	}

	// Keep the one-lead-per-session invariant visible on the session too.
	session.LeadCaptured = true
	session.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveSession(ctx, session); err != nil {
		s.log.Warn("failed to flag session after manual lead", "session_id", req.SessionID, "error", err)
	}

	s.log.Info("manual lead created", "lead_id", lead.ID, "session_id", req.SessionID)
	return lead, nil
}

// List returns up to limit leads, newest first.
func (s *LeadService) List(ctx context.Context, limit int) ([]model.Lead, error) {
	return s.store.ListLeads(ctx, limit)
}

// UpdateStatus moves a lead on the board. Unknown statuses and unknown ids
// are rejected without mutating state.
func (s *LeadService) UpdateStatus(ctx context.Context, leadID, status string) error {
	if !model.IsValidLeadStatus(status) {
		return ErrInvalidStatus
	}
	return s.store.UpdateLeadStatus(ctx, leadID, status)
}

// Stats aggregates the lead pipeline.
func (s *LeadService) Stats(ctx context.Context) (*model.LeadStats, error) {
	return s.store.LeadStats(ctx)
}
