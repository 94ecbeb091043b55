package matcher

import (
	"testing"

	"shindi/internal/model"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func boolPtr(b bool) *bool        { return &b }

func fixtureCatalog() []model.Apartment {
	return []model.Apartment{
		{ID: 1, City: "Batumi", TotalArea: 45, Rooms: 1, Floor: 3, ViewType: "sea",
			HasBalcony: true, TotalPrice: 63000, MinInitialInstallment: 12600,
			ConstructionStatus: model.ConstructionCompleted},
		{ID: 2, City: "Batumi", TotalArea: 60, Rooms: 2, Floor: 7, ViewType: "city",
			HasBalcony: false, TotalPrice: 84000, MinInitialInstallment: 16800,
			ConstructionStatus: model.ConstructionCompleted},
		{ID: 3, City: "Batumi", TotalArea: 75, Rooms: 3, Floor: 12, ViewType: "sea",
			HasBalcony: true, TotalPrice: 105000, MinInitialInstallment: 21000,
			ConstructionStatus: model.ConstructionUnderConstruction},
		{ID: 4, City: "Tbilisi", TotalArea: 55, Rooms: 2, Floor: 5, ViewType: "city",
			HasBalcony: true, TotalPrice: 60500, MinInitialInstallment: 12100,
			ConstructionStatus: model.ConstructionOffPlan},
	}
}

func matchedIDs(apartments []model.Apartment) []int64 {
	ids := make([]int64, 0, len(apartments))
	for _, a := range apartments {
		ids = append(ids, a.ID)
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMatch(t *testing.T) {
	catalog := fixtureCatalog()

	tests := []struct {
		name  string
		prefs model.UserPreferences
		want  []int64
	}{
		{
			name:  "empty preferences keep everything in order",
			prefs: model.UserPreferences{},
			want:  []int64{1, 2, 3, 4},
		},
		{
			name:  "city filter",
			prefs: model.UserPreferences{City: strPtr("Batumi")},
			want:  []int64{1, 2, 3},
		},
		{
			name:  "city is case sensitive",
			prefs: model.UserPreferences{City: strPtr("batumi")},
			want:  []int64{},
		},
		{
			name:  "maxBudget cap is inclusive",
			prefs: model.UserPreferences{MaxBudget: floatPtr(84000)},
			want:  []int64{1, 2, 4},
		},
		{
			name:  "one dollar under the cap excludes",
			prefs: model.UserPreferences{MaxBudget: floatPtr(83999)},
			want:  []int64{1, 4},
		},
		{
			name:  "budgetMax behaves like maxBudget",
			prefs: model.UserPreferences{BudgetMax: floatPtr(84000)},
			want:  []int64{1, 2, 4},
		},
		{
			name:  "down payment bound is inclusive",
			prefs: model.UserPreferences{DownPayment: floatPtr(12600)},
			want:  []int64{1, 4},
		},
		{
			name:  "size range",
			prefs: model.UserPreferences{MinSize: floatPtr(55), MaxSize: floatPtr(60)},
			want:  []int64{2, 4},
		},
		{
			name:  "rooms match exactly",
			prefs: model.UserPreferences{Rooms: intPtr(2)},
			want:  []int64{2, 4},
		},
		{
			name:  "floor range",
			prefs: model.UserPreferences{MinFloor: intPtr(5), MaxFloor: intPtr(7)},
			want:  []int64{2, 4},
		},
		{
			name:  "view type",
			prefs: model.UserPreferences{ViewType: strPtr("sea")},
			want:  []int64{1, 3},
		},
		{
			name:  "balcony required",
			prefs: model.UserPreferences{RequiresBalcony: boolPtr(true)},
			want:  []int64{1, 3, 4},
		},
		{
			name:  "balcony not required imposes nothing",
			prefs: model.UserPreferences{RequiresBalcony: boolPtr(false)},
			want:  []int64{1, 2, 3, 4},
		},
		{
			name:  "construction status set membership",
			prefs: model.UserPreferences{ConstructionStatus: []string{"off-plan", "under-construction"}},
			want:  []int64{3, 4},
		},
		{
			name: "all predicates conjunctive",
			prefs: model.UserPreferences{
				City:      strPtr("Batumi"),
				MaxBudget: floatPtr(90000),
				ViewType:  strPtr("sea"),
			},
			want: []int64{1},
		},
		{
			name: "contact fields never affect matching",
			prefs: model.UserPreferences{
				Name:  strPtr("Nino"),
				Phone: strPtr("+995 555 123456"),
			},
			want: []int64{1, 2, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchedIDs(Match(catalog, tt.prefs))
			if !equalIDs(got, tt.want) {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchNarrowingIsMonotonic(t *testing.T) {
	catalog := fixtureCatalog()

	loose := model.UserPreferences{City: strPtr("Batumi")}
	tight := loose
	tight.MaxBudget = floatPtr(84000)

	looseSet := Match(catalog, loose)
	tightSet := Match(catalog, tight)

	if len(tightSet) > len(looseSet) {
		t.Fatalf("narrowing grew the result: %d > %d", len(tightSet), len(looseSet))
	}
	looseIDs := map[int64]bool{}
	for _, a := range looseSet {
		looseIDs[a.ID] = true
	}
	for _, a := range tightSet {
		if !looseIDs[a.ID] {
			t.Errorf("apartment %d appeared only in the narrower result", a.ID)
		}
	}
}

func TestMatchEmptyCatalog(t *testing.T) {
	got := Match(nil, model.UserPreferences{City: strPtr("Batumi")})
	if len(got) != 0 {
		t.Errorf("Match() on empty catalog = %v", got)
	}
}
