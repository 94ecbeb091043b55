// Package matcher filters the apartment catalog against accumulated user
// preferences. Matching is a conjunctive predicate chain: an apartment is
// kept only if it passes every predicate derived from a present preference
// field, and absent fields impose no constraint. The result preserves
// catalog order and the function is pure, so retries and test fixtures are
// deterministic.
package matcher

import "shindi/internal/model"

// Match returns the apartments satisfying every present preference.
func Match(catalog []model.Apartment, prefs model.UserPreferences) []model.Apartment {
	matched := make([]model.Apartment, 0, len(catalog))
	for _, apt := range catalog {
		if Matches(apt, prefs) {
			matched = append(matched, apt)
		}
	}
	return matched
}

// Matches reports whether a single apartment satisfies the preferences.
// All bounds are inclusive; city and viewType compare case-sensitively.
func Matches(apt model.Apartment, prefs model.UserPreferences) bool {
	if prefs.City != nil && apt.City != *prefs.City {
		return false
	}
	// The user can afford it: required down payment within their stated one.
	if prefs.DownPayment != nil && apt.MinInitialInstallment > *prefs.DownPayment {
		return false
	}
	if prefs.MaxBudget != nil && apt.TotalPrice > *prefs.MaxBudget {
		return false
	}
	if prefs.BudgetMax != nil && apt.TotalPrice > *prefs.BudgetMax {
		return false
	}
	if prefs.MinSize != nil && apt.TotalArea < *prefs.MinSize {
		return false
	}
	if prefs.MaxSize != nil && apt.TotalArea > *prefs.MaxSize {
		return false
	}
	if prefs.Rooms != nil && apt.Rooms != *prefs.Rooms {
		return false
	}
	if prefs.MinFloor != nil && apt.Floor < *prefs.MinFloor {
		return false
	}
	if prefs.MaxFloor != nil && apt.Floor > *prefs.MaxFloor {
		return false
	}
	if prefs.ViewType != nil && apt.ViewType != *prefs.ViewType {
		return false
	}
	if prefs.RequiresBalcony != nil && *prefs.RequiresBalcony && !apt.HasBalcony {
		return false
	}
	if len(prefs.ConstructionStatus) > 0 && !containsString(prefs.ConstructionStatus, apt.ConstructionStatus) {
		return false
	}
	return true
}

func containsString(set []string, value string) bool {
	for _, s := range set {
		if s == value {
			return true
		}
	}
	return false
}
