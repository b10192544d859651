package persistence

import "strings"

// ValidateSortOrder normalizes the sort direction to ASC or DESC,
// defaulting to DESC. Sort inputs come from query strings and must never
// reach the ORDER BY clause unchecked.
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist,
// falling back to defaultField for anything not on it.
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowed[trimmed] {
		return trimmed
	}
	return defaultField
}
