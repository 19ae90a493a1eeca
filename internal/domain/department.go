package domain

import (
	"strings"
	"time"
)

// Department is an organizational unit owning a subset of tickets, its
// own status taxonomy and its own integration credentials. Exactly one
// department carries the oversight flag; it additionally receives a
// mirrored copy of every other department's tickets and notifications.
type Department struct {
	ID          string
	Name        string
	Slug        string
	IsOversight bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeLabel lower-cases and trims a textual label for
// case-insensitive matching against status names.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
