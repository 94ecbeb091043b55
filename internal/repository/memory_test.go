package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"shindi/internal/model"
)

func TestMemoryStoreSessionRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.GetSession(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("GetSession(missing) = %v, %v; want nil, nil", got, err)
	}

	session := model.NewSession("s1")
	city := "Batumi"
	session.Preferences.City = &city
	session.ConversationHistory = model.MessageList{
		{Role: model.RoleUser, Content: "hi", Timestamp: time.Now().UTC()},
	}
	if err := store.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	// Mutating the caller's copy after save must not leak into the store.
	session.ConversationHistory[0].Content = "mutated"

	loaded, err := store.GetSession(ctx, "s1")
	if err != nil || loaded == nil {
		t.Fatalf("GetSession() = %v, %v", loaded, err)
	}
	if loaded.ConversationHistory[0].Content != "hi" {
		t.Errorf("stored history was aliased: %q", loaded.ConversationHistory[0].Content)
	}
	if loaded.Preferences.City == nil || *loaded.Preferences.City != "Batumi" {
		t.Errorf("preferences not persisted: %+v", loaded.Preferences)
	}
}

func TestMemoryStoreDeleteExpiredSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	stale := model.NewSession("stale")
	stale.UpdatedAt = time.Now().UTC().Add(-48 * time.Hour)
	fresh := model.NewSession("fresh")
	if err := store.SaveSession(ctx, stale); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveSession(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	removed, err := store.DeleteExpiredSessions(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if s, _ := store.GetSession(ctx, "stale"); s != nil {
		t.Error("stale session survived")
	}
	if s, _ := store.GetSession(ctx, "fresh"); s == nil {
		t.Error("fresh session was removed")
	}
}

func TestMemoryStoreLeadUniquePerSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &model.Lead{SessionID: "s1", Name: "Nino", Phone: "+995555123456"}
	if err := store.CreateLead(ctx, first); err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}
	if first.ID == "" || first.Status != model.LeadStatusNew {
		t.Errorf("defaults not applied: id=%q status=%q", first.ID, first.Status)
	}

	second := &model.Lead{SessionID: "s1", Name: "Nino", Phone: "+995555123456"}
	if err := store.CreateLead(ctx, second); !errors.Is(err, ErrLeadExists) {
		t.Errorf("duplicate CreateLead() error = %v, want ErrLeadExists", err)
	}

	leads, _ := store.ListLeads(ctx, 10)
	if len(leads) != 1 {
		t.Errorf("lead count = %d, want 1", len(leads))
	}
}

func TestMemoryStoreSearchSkipsUnavailable(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.SetApartments([]model.Apartment{
		{ID: 1, City: "Batumi", AvailabilityStatus: model.AvailabilityAvailable},
		{ID: 2, City: "Batumi", AvailabilityStatus: model.AvailabilityReserved},
		{ID: 3, City: "Tbilisi", AvailabilityStatus: model.AvailabilityAvailable},
	})

	city := "Batumi"
	got, err := store.SearchApartments(ctx, model.UserPreferences{City: &city})
	if err != nil {
		t.Fatalf("SearchApartments() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("SearchApartments() = %+v, want only apartment 1", got)
	}
}
