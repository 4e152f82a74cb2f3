package validator

import (
	"docauth/internal/models"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minLoginLen    = 8
	minPasswordLen = 8
	maxTitleLen    = 255
	maxTags        = 32
	maxOrgIDLen    = 128
)

var (
	loginRe = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	orgIDRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
)

// IsValidLogin accepts latin letters and digits, at least 8 characters.
func IsValidLogin(login string) bool {
	return len(login) >= minLoginLen && loginRe.MatchString(login)
}

// IsValidPassword requires at least 8 characters with an upper and a lower
// case letter, a digit and a symbol.
func IsValidPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}

func IsValidOrganizationID(id string) bool {
	return len(id) <= maxOrgIDLen && orgIDRe.MatchString(id)
}

// OrganizationIDs checks a non-empty list of organization ids and returns it
// without duplicates, keeping the first occurrence order.
func OrganizationIDs(ids []string) ([]string, bool) {
	if len(ids) == 0 {
		return nil, false
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !IsValidOrganizationID(id) {
			return nil, false
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out, true
}

func IsValidTitle(title string) bool {
	title = strings.TrimSpace(title)
	return title != "" && utf8.RuneCountInString(title) <= maxTitleLen
}

func IsValidTags(tags []string) bool {
	if len(tags) > maxTags {
		return false
	}
	for _, t := range tags {
		if strings.TrimSpace(t) == "" {
			return false
		}
	}
	return true
}

// IsReviewerTarget reports whether a reviewer may move an organization entry
// to s. Resubmission belongs to the owner and expiry to the sweeper.
func IsReviewerTarget(s models.Status) bool {
	switch s {
	case models.StatusInQueue,
		models.StatusUnderReview,
		models.StatusVerified,
		models.StatusRejected,
		models.StatusChangesRequested,
		models.StatusUnderDispute,
		models.StatusRevoked,
		models.StatusPendingRenewal:
		return true
	}
	return false
}
