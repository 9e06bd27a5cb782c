package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// ValidateAccountID validates a chain account id: 2-64 chars, lowercase
// alphanumeric segments separated by single . - _ separators.
func ValidateAccountID(account string) error {
	if len(account) < 2 || len(account) > 64 {
		return fmt.Errorf("invalid account id length (2-64 chars)")
	}
	if !accountIDPattern.MatchString(account) {
		return fmt.Errorf("invalid account id format: %s", account)
	}
	return nil
}

// ValidateDeposit validates an attached deposit string (base-10 digits only)
func ValidateDeposit(deposit string) error {
	if deposit == "" {
		return fmt.Errorf("deposit cannot be empty")
	}
	for _, r := range deposit {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid deposit amount: %s", deposit)
		}
	}
	return nil
}

// ValidateRecordID validates a case record id format: "Case File #N: subject"
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}
	pattern := `^Case File #\d+: .+$`
	matched, _ := regexp.MatchString(pattern, id)
	if !matched {
		return fmt.Errorf("invalid record id format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
