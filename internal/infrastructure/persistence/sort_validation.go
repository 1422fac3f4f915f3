package persistence

import "strings"

// ValidateSortOrder normalizes a sort direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowed[trimmed] {
		return trimmed
	}
	return defaultField
}

// ContactSortFields lists columns a contact listing may be ordered by
var ContactSortFields = map[string]bool{
	"created_at":           true,
	"updated_at":           true,
	"name":                 true,
	"stage":                true,
	"next_action_due_date": true,
	"last_contact_at":      true,
}
