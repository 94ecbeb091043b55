package service

import "shindi/internal/model"

// LeadState is the qualification state of a session for one turn.
//
// The machine is COLLECTING → READY → CAPTURED. CAPTURED is terminal: once a
// session has produced a lead, later affirmative turns stay CAPTURED and no
// second lead is created.
type LeadState int

const (
	// LeadCollecting: not enough signal yet; keep the conversation going.
	LeadCollecting LeadState = iota
	// LeadReady: the model signalled readiness and the preferences carry the
	// required contact identity; a lead should be persisted this turn.
	LeadReady
	// LeadCaptured: a lead already exists for this session.
	LeadCaptured
)

// QualifyLead decides the lead state for the current turn from the merged
// preferences, the parser's lead-ready flag and the session's captured flag.
//
// Readiness requires both the model's explicit signal and a usable name and
// phone; either alone is not enough (the model sometimes emits leadReady
// before asking for contact details).
func QualifyLead(prefs model.UserPreferences, leadReady, alreadyCaptured bool) LeadState {
	if alreadyCaptured {
		return LeadCaptured
	}
	if leadReady && prefs.HasContact() {
		return LeadReady
	}
	return LeadCollecting
}
