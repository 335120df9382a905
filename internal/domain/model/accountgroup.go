package model

import (
	"errors"
	"strings"
)

// AccountGroup is a named, ordered collection of accounts. It references its
// accounts by identifier; the accounts themselves live in Vault.Accounts.
//
// Icon is a runtime-only reference to a file under the icons directory and
// is never written to backups.
type AccountGroup struct {
	ID         int64
	Name       string
	Icon       *string
	URL        *string
	AccountIDs []int64
}

// NewAccountGroup returns an unsaved group. Empty icon or url values are
// treated as absent.
func NewAccountGroup(name, icon, url string) AccountGroup {
	return AccountGroup{Name: name, Icon: OptionalString(icon), URL: OptionalString(url)}
}

// Validate checks the invariants every persisted group must satisfy.
func (g AccountGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return errors.New("group name is empty")
	}
	if g.URL != nil && strings.TrimSpace(*g.URL) == "" {
		return errors.New("group url is present but empty")
	}
	return nil
}

// IsEmpty reports whether the group has no accounts.
func (g AccountGroup) IsEmpty() bool {
	return len(g.AccountIDs) == 0
}

// OptionalString maps the empty string to nil.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences an optional string, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
