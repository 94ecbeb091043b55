package service

import (
	"strings"

	"shindi/internal/model"
)

// MergePreferences applies an untrusted preference patch (the decoded body
// of the model's <preferences> block) onto the current record.
//
// The merge is a shallow override per recognized key: a key present in the
// patch with a value of the expected type replaces the current value, keys
// absent from the patch are retained, and keys outside the fixed schema are
// dropped silently so model drift never aborts a turn. Null, empty-string
// and wrong-typed values count as "not provided" and never overwrite an
// existing value. constructionStatus is replaced wholesale, never appended
// to. The function is pure.
func MergePreferences(current model.UserPreferences, patch map[string]interface{}) model.UserPreferences {
	merged := current
	for key, raw := range patch {
		switch key {
		case "name":
			setString(&merged.Name, raw)
		case "phone":
			setString(&merged.Phone, raw)
		case "email":
			setString(&merged.Email, raw)
		case "language":
			setString(&merged.Language, raw)
		case "city":
			setString(&merged.City, raw)
		case "viewType":
			setString(&merged.ViewType, raw)
		case "maxBudget":
			setNumber(&merged.MaxBudget, raw)
		case "budgetMax":
			setNumber(&merged.BudgetMax, raw)
		case "monthlyPayment":
			setNumber(&merged.MonthlyPayment, raw)
		case "downPayment":
			setNumber(&merged.DownPayment, raw)
		case "minSize":
			setNumber(&merged.MinSize, raw)
		case "maxSize":
			setNumber(&merged.MaxSize, raw)
		case "rooms":
			setInt(&merged.Rooms, raw)
		case "minFloor":
			setInt(&merged.MinFloor, raw)
		case "maxFloor":
			setInt(&merged.MaxFloor, raw)
		case "requiresBalcony":
			setBool(&merged.RequiresBalcony, raw)
		case "constructionStatus":
			if statuses, ok := asStringSlice(raw); ok {
				merged.ConstructionStatus = statuses
			}
		}
	}
	return merged
}

func setString(dst **string, raw interface{}) {
	s, ok := raw.(string)
	if !ok {
		return
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	*dst = &s
}

func setNumber(dst **float64, raw interface{}) {
	// encoding/json decodes every JSON number as float64.
	n, ok := raw.(float64)
	if !ok {
		return
	}
	*dst = &n
}

func setInt(dst **int, raw interface{}) {
	n, ok := raw.(float64)
	if !ok {
		return
	}
	v := int(n)
	*dst = &v
}

func setBool(dst **bool, raw interface{}) {
	b, ok := raw.(bool)
	if !ok {
		return
	}
	*dst = &b
}

// asStringSlice accepts a JSON array of non-empty strings. Anything else,
// including an empty array, counts as "not provided".
func asStringSlice(raw interface{}) ([]string, bool) {
	items, ok := raw.([]interface{})
	if !ok || len(items) == 0 {
		return nil, false
	}
	statuses := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, false
		}
		statuses = append(statuses, s)
	}
	return statuses, true
}
