package service

import (
	"reflect"
	"testing"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantPatch     map[string]interface{}
		wantLeadReady bool
		wantCleanText string
	}{
		{
			name:          "both blocks present",
			raw:           "Great choice! <preferences>{\"city\":\"Batumi\",\"maxBudget\":85000}</preferences><leadReady>true</leadReady>",
			wantPatch:     map[string]interface{}{"city": "Batumi", "maxBudget": 85000.0},
			wantLeadReady: true,
			wantCleanText: "Great choice!",
		},
		{
			name:          "no control blocks",
			raw:           "  Which city are you interested in?  ",
			wantPatch:     map[string]interface{}{},
			wantLeadReady: false,
			wantCleanText: "Which city are you interested in?",
		},
		{
			name:          "malformed preferences degrade to empty patch",
			raw:           "Noted. <preferences>{bad json</preferences>",
			wantPatch:     map[string]interface{}{},
			wantLeadReady: false,
			wantCleanText: "Noted.",
		},
		{
			name:          "leadReady false",
			raw:           "Almost there. <leadReady>false</leadReady>",
			wantPatch:     map[string]interface{}{},
			wantLeadReady: false,
			wantCleanText: "Almost there.",
		},
		{
			name:          "leadReady is case and whitespace tolerant",
			raw:           "Done. <leadReady>  TRUE  </leadReady>",
			wantPatch:     map[string]interface{}{},
			wantLeadReady: true,
			wantCleanText: "Done.",
		},
		{
			name:          "leadReady with unexpected body is false",
			raw:           "Done. <leadReady>yes</leadReady>",
			wantPatch:     map[string]interface{}{},
			wantLeadReady: false,
			wantCleanText: "Done.",
		},
		{
			name:          "blocks in reverse order",
			raw:           "Thanks!\n<leadReady>true</leadReady>\n<preferences>{\"name\":\"Nino\",\"phone\":\"+995 555 123456\"}</preferences>",
			wantPatch:     map[string]interface{}{"name": "Nino", "phone": "+995 555 123456"},
			wantLeadReady: true,
			wantCleanText: "Thanks!",
		},
		{
			name:          "multiline preferences body",
			raw:           "Sure.\n<preferences>\n{\n  \"rooms\": 2,\n  \"requiresBalcony\": true\n}\n</preferences>",
			wantPatch:     map[string]interface{}{"rooms": 2.0, "requiresBalcony": true},
			wantLeadReady: false,
			wantCleanText: "Sure.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseReply(tt.raw)
			if !reflect.DeepEqual(got.Patch, tt.wantPatch) {
				t.Errorf("Patch = %+v, want %+v", got.Patch, tt.wantPatch)
			}
			if got.LeadReady != tt.wantLeadReady {
				t.Errorf("LeadReady = %v, want %v", got.LeadReady, tt.wantLeadReady)
			}
			if got.CleanText != tt.wantCleanText {
				t.Errorf("CleanText = %q, want %q", got.CleanText, tt.wantCleanText)
			}
		})
	}
}
