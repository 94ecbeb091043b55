package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shindi/internal/logger"
	"shindi/internal/matcher"
	"shindi/internal/model"
	"shindi/internal/repository"

	"github.com/google/uuid"
)

// ErrUpstreamModel marks a failed or timed-out model call. The turn fails
// without touching the session, so the caller may safely retry the same
// user message.
var ErrUpstreamModel = errors.New("upstream model failure")

// ChatService owns the session lifecycle: one HandleTurn call is one
// conversation turn, synchronous from the caller's perspective.
type ChatService struct {
	store repository.Store
	model ModelClient
	log   *logger.Logger

	// locks serializes turns per session key. Concurrent turns for distinct
	// sessions stay fully independent.
	locks sync.Map // sessionID -> *sync.Mutex
}

// NewChatService creates the orchestrator.
func NewChatService(store repository.Store, modelClient ModelClient, log *logger.Logger) *ChatService {
	return &ChatService{
		store: store,
		model: modelClient,
		log:   log.With("service", "chat"),
	}
}

// HandleTurn runs one conversation turn:
//
//  1. resolve the session (lazily created when the key is absent/unknown)
//  2. compute candidate apartments from the pre-turn preferences
//  3. call the model with prior history, the user message and candidates
//  4. parse the reply, merge the preference patch, qualify the lead
//  5. append both turn messages and persist the session
//
// A model failure leaves the session unpersisted. A lead-save failure is
// degraded: the reply is still returned and leadCaptured stays false so a
// later turn can retry capture. A session-save failure fails the whole turn
// rather than returning unsaved state as if committed.
func (s *ChatService) HandleTurn(ctx context.Context, message, sessionID string) (*model.ChatResponse, error) {
	id := sessionID
	if id == "" {
		id = uuid.NewString()
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		session = model.NewSession(id)
	}

	preTurnPrefs := session.Preferences

	catalog, err := s.store.ListAvailableApartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	candidates := matcher.Match(catalog, preTurnPrefs)

	rawReply, err := s.model.GenerateReply(ctx, session.ConversationHistory, message, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamModel, err)
	}

	now := time.Now().UTC()
	session.ConversationHistory = append(session.ConversationHistory, model.Message{
		Role:      model.RoleUser,
		Content:   message,
		Timestamp: now,
	})

	parsed := ParseReply(rawReply)
	session.Preferences = MergePreferences(preTurnPrefs, parsed.Patch)

	if QualifyLead(session.Preferences, parsed.LeadReady, session.LeadCaptured) == LeadReady {
		s.captureLead(ctx, session, candidates)
	}

	session.ConversationHistory = append(session.ConversationHistory, model.Message{
		Role:      model.RoleAssistant,
		Content:   parsed.CleanText,
		Timestamp: now,
	})
	session.UpdatedAt = now

	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &model.ChatResponse{
		Message:      parsed.CleanText,
		Preferences:  session.Preferences,
		SessionID:    id,
		LeadCaptured: session.LeadCaptured,
	}, nil
}

// captureLead snapshots the session into a lead. The snapshot history
// includes the just-submitted user message but not the assistant reply, and
// the suggested apartments are the filtered candidates of this turn, never
// the raw catalog.
//
// On a store error the captured flag stays false (the next qualifying turn
// retries); ErrLeadExists means another turn won the race, which counts as
// captured.
func (s *ChatService) captureLead(ctx context.Context, session *model.Session, candidates []model.Apartment) {
	prefs := session.Preferences
	lead := &model.Lead{
		SessionID:           session.SessionID,
		Name:                *prefs.Name,
		Phone:               *prefs.Phone,
		Email:               prefs.Email,
		Language:            prefs.LanguageOrDefault(),
		Preferences:         prefs,
		SuggestedApartments: append(model.ApartmentList{}, candidates...),
		ChatHistory:         append(model.MessageList{}, session.ConversationHistory...),
		Status:              model.LeadStatusNew,
	}

	err := s.store.CreateLead(ctx, lead)
	switch {
	case err == nil:
		session.LeadCaptured = true
		s.log.Info("lead captured", "session_id", session.SessionID, "lead_id", lead.ID)
	case errors.Is(err, repository.ErrLeadExists):
		session.LeadCaptured = true
	default:
		s.log.Warn("lead save failed, will retry next qualifying turn",
			"session_id", session.SessionID, "error", err)
	}
}

func (s *ChatService) lockFor(sessionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
