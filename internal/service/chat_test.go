package service

import (
	"context"
	"errors"
	"testing"

	"shindi/internal/logger"
	"shindi/internal/model"
	"shindi/internal/repository"
)

// stubModel returns a canned reply and records what it was called with.
type stubModel struct {
	reply string
	err   error

	calls          int
	lastHistory    []model.Message
	lastMessage    string
	lastCandidates []model.Apartment
}

func (m *stubModel) GenerateReply(ctx context.Context, history []model.Message, userMessage string, candidates []model.Apartment) (string, error) {
	m.calls++
	m.lastHistory = append([]model.Message(nil), history...)
	m.lastMessage = userMessage
	m.lastCandidates = append([]model.Apartment(nil), candidates...)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// failingLeadStore makes every lead insert fail.
type failingLeadStore struct {
	*repository.MemoryStore
}

func (s *failingLeadStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	return errors.New("disk full")
}

func testCatalog() []model.Apartment {
	return []model.Apartment{
		{ID: 1, ProjectName: "Palm Residence", City: "Batumi", TotalArea: 45, Rooms: 1, Floor: 3,
			ViewType: "sea", TotalPrice: 63000, AvailabilityStatus: model.AvailabilityAvailable},
		{ID: 2, ProjectName: "Palm Residence", City: "Batumi", TotalArea: 60, Rooms: 2, Floor: 7,
			ViewType: "city", TotalPrice: 84000, AvailabilityStatus: model.AvailabilityAvailable},
		{ID: 3, ProjectName: "Green Hills", City: "Tbilisi", TotalArea: 55, Rooms: 2, Floor: 5,
			ViewType: "city", TotalPrice: 60500, AvailabilityStatus: model.AvailabilityAvailable},
	}
}

func newTestChatService(store repository.Store, m ModelClient) *ChatService {
	return NewChatService(store, m, logger.NewNop())
}

func TestHandleTurnCreatesSession(t *testing.T) {
	store := repository.NewMemoryStore()
	stub := &stubModel{reply: "Hello! Which city? <preferences>{}</preferences>"}
	svc := newTestChatService(store, stub)

	resp, err := svc.HandleTurn(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if resp.SessionID == "" {
		t.Fatal("expected a generated session id")
	}
	if resp.Message != "Hello! Which city?" {
		t.Errorf("Message = %q", resp.Message)
	}

	session, err := store.GetSession(context.Background(), resp.SessionID)
	if err != nil || session == nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if len(session.ConversationHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(session.ConversationHistory))
	}
	if session.ConversationHistory[0].Role != model.RoleUser || session.ConversationHistory[0].Content != "hi" {
		t.Errorf("first message = %+v", session.ConversationHistory[0])
	}
	if session.ConversationHistory[1].Role != model.RoleAssistant || session.ConversationHistory[1].Content != "Hello! Which city?" {
		t.Errorf("second message = %+v", session.ConversationHistory[1])
	}
}

func TestHandleTurnMergesAndPersistsPreferences(t *testing.T) {
	store := repository.NewMemoryStore()
	stub := &stubModel{reply: "Batumi it is. <preferences>{\"city\":\"Batumi\",\"rooms\":2}</preferences>"}
	svc := newTestChatService(store, stub)

	resp, err := svc.HandleTurn(context.Background(), "I want Batumi, 2 rooms", "s1")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if resp.Preferences.City == nil || *resp.Preferences.City != "Batumi" {
		t.Errorf("City = %v", resp.Preferences.City)
	}
	if resp.Preferences.Rooms == nil || *resp.Preferences.Rooms != 2 {
		t.Errorf("Rooms = %v", resp.Preferences.Rooms)
	}

	session, _ := store.GetSession(context.Background(), "s1")
	if session == nil || session.Preferences.City == nil || *session.Preferences.City != "Batumi" {
		t.Error("merged preferences not persisted")
	}
}

func TestHandleTurnHistoryExcludesCurrentMessage(t *testing.T) {
	store := repository.NewMemoryStore()
	stub := &stubModel{reply: "Sure. <preferences>{}</preferences>"}
	svc := newTestChatService(store, stub)

	if _, err := svc.HandleTurn(context.Background(), "first", "s1"); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if _, err := svc.HandleTurn(context.Background(), "second", "s1"); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	if stub.lastMessage != "second" {
		t.Errorf("lastMessage = %q", stub.lastMessage)
	}
	// History passed to the model carries only completed turns.
	if len(stub.lastHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(stub.lastHistory))
	}
	for _, m := range stub.lastHistory {
		if m.Content == "second" {
			t.Error("current user message leaked into history")
		}
	}
}

func TestHandleTurnCandidatesUsePreTurnPreferences(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetApartments(testCatalog())
	stub := &stubModel{reply: "Noted. <preferences>{\"city\":\"Batumi\"}</preferences>"}
	svc := newTestChatService(store, stub)

	// Turn 1 starts with empty preferences, so the model sees everything.
	if _, err := svc.HandleTurn(context.Background(), "hello", "s1"); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if len(stub.lastCandidates) != 3 {
		t.Fatalf("turn 1 candidates = %d, want 3", len(stub.lastCandidates))
	}

	// Turn 2 filters by the city merged on turn 1.
	if _, err := svc.HandleTurn(context.Background(), "show me options", "s1"); err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if len(stub.lastCandidates) != 2 {
		t.Fatalf("turn 2 candidates = %d, want 2", len(stub.lastCandidates))
	}
	for _, apt := range stub.lastCandidates {
		if apt.City != "Batumi" {
			t.Errorf("unexpected candidate city %q", apt.City)
		}
	}
}

func TestHandleTurnCapturesLeadOnce(t *testing.T) {
	store := repository.NewMemoryStore()
	store.SetApartments(testCatalog())
	reply := "Our team will call you. " +
		"<preferences>{\"name\":\"Nino\",\"phone\":\"+995 555 123456\",\"city\":\"Batumi\"}</preferences>" +
		"<leadReady>true</leadReady>"
	stub := &stubModel{reply: reply}
	svc := newTestChatService(store, stub)

	resp, err := svc.HandleTurn(context.Background(), "yes, contact me", "s1")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !resp.LeadCaptured {
		t.Fatal("expected leadCaptured = true")
	}

	leads, _ := store.ListLeads(context.Background(), 10)
	if len(leads) != 1 {
		t.Fatalf("lead count = %d, want 1", len(leads))
	}
	lead := leads[0]
	if lead.Name != "Nino" || lead.Phone != "+995 555 123456" {
		t.Errorf("lead identity = %q / %q", lead.Name, lead.Phone)
	}
	if lead.Status != model.LeadStatusNew {
		t.Errorf("lead status = %q", lead.Status)
	}
	// The snapshot history holds the user message but not the assistant reply.
	if len(lead.ChatHistory) != 1 || lead.ChatHistory[0].Content != "yes, contact me" {
		t.Errorf("lead history = %+v", lead.ChatHistory)
	}
	// Suggested apartments are this turn's candidates (empty prefs pre-turn).
	if len(lead.SuggestedApartments) != 3 {
		t.Errorf("suggested apartments = %d, want 3", len(lead.SuggestedApartments))
	}

	// A second qualifying turn must not create a second lead.
	resp, err = svc.HandleTurn(context.Background(), "still interested", "s1")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if !resp.LeadCaptured {
		t.Error("leadCaptured should stay true")
	}
	leads, _ = store.ListLeads(context.Background(), 10)
	if len(leads) != 1 {
		t.Errorf("lead count after second turn = %d, want 1", len(leads))
	}
}

func TestHandleTurnModelFailureLeavesSessionUntouched(t *testing.T) {
	store := repository.NewMemoryStore()
	stub := &stubModel{err: errors.New("timeout")}
	svc := newTestChatService(store, stub)

	_, err := svc.HandleTurn(context.Background(), "hi", "s1")
	if !errors.Is(err, ErrUpstreamModel) {
		t.Fatalf("error = %v, want ErrUpstreamModel", err)
	}

	session, _ := store.GetSession(context.Background(), "s1")
	if session != nil {
		t.Error("session should not have been persisted")
	}
}

func TestHandleTurnLeadSaveFailureDegrades(t *testing.T) {
	store := &failingLeadStore{MemoryStore: repository.NewMemoryStore()}
	reply := "Thanks! " +
		"<preferences>{\"name\":\"Nino\",\"phone\":\"+995 555 123456\"}</preferences>" +
		"<leadReady>true</leadReady>"
	stub := &stubModel{reply: reply}
	svc := newTestChatService(store, stub)

	resp, err := svc.HandleTurn(context.Background(), "contact me", "s1")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if resp.Message != "Thanks!" {
		t.Errorf("Message = %q", resp.Message)
	}
	if resp.LeadCaptured {
		t.Error("leadCaptured must stay false after a failed save")
	}

	// The session was still persisted so the next turn can retry capture.
	session, _ := store.GetSession(context.Background(), "s1")
	if session == nil {
		t.Fatal("session not persisted")
	}
	if session.LeadCaptured {
		t.Error("session captured flag must stay false")
	}
}

func TestHandleTurnEmptyCatalog(t *testing.T) {
	store := repository.NewMemoryStore()
	stub := &stubModel{reply: "Nothing matches yet. <preferences>{}</preferences>"}
	svc := newTestChatService(store, stub)

	resp, err := svc.HandleTurn(context.Background(), "hi", "s1")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if len(stub.lastCandidates) != 0 {
		t.Errorf("candidates = %d, want 0", len(stub.lastCandidates))
	}
	if resp.Message != "Nothing matches yet." {
		t.Errorf("Message = %q", resp.Message)
	}
}
