package service

import (
	"regexp"
	"strings"

	"shindi/internal/utils"
)

// The model terminates every reply with optional control blocks:
//
//	...free text...
//	<preferences>{"city":"Batumi","maxBudget":85000}</preferences>
//	<leadReady>true</leadReady>
//
// Blocks may appear in either order and are stripped from the user-visible
// text.
var (
	preferencesBlockRe = regexp.MustCompile(`(?s)<preferences>(.*?)</preferences>`)
	leadReadyBlockRe   = regexp.MustCompile(`(?s)<leadReady>(.*?)</leadReady>`)
)

// ParsedReply is the structured view of one raw model reply.
type ParsedReply struct {
	// Patch is the decoded preferences block, or an empty map if the block
	// is absent or unparseable. Keys are not yet validated against the
	// schema; MergePreferences does that.
	Patch map[string]interface{}

	// LeadReady is true only if the leadReady block body, trimmed and
	// lower-cased, is the literal "true".
	LeadReady bool

	// CleanText is the reply with all control markup removed; the only text
	// ever shown to the end user.
	CleanText string
}

// ParseReply extracts the preference patch and lead-readiness flag from a
// raw model reply. It never fails: malformed control markup degrades to an
// empty patch / false flag so a sloppy model reply cannot abort the turn.
func ParseReply(raw string) ParsedReply {
	parsed := ParsedReply{Patch: map[string]interface{}{}}

	if m := preferencesBlockRe.FindStringSubmatch(raw); m != nil {
		var patch map[string]interface{}
		if err := utils.DecodeModelJSON(m[1], &patch); err == nil && patch != nil {
			parsed.Patch = patch
		}
	}

	if m := leadReadyBlockRe.FindStringSubmatch(raw); m != nil {
		parsed.LeadReady = strings.ToLower(strings.TrimSpace(m[1])) == "true"
	}

	clean := preferencesBlockRe.ReplaceAllString(raw, "")
	clean = leadReadyBlockRe.ReplaceAllString(clean, "")
	parsed.CleanText = strings.TrimSpace(clean)

	return parsed
}
