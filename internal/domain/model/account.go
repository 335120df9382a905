package model

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// TOTPPeriod is the validity window of a generated code, in seconds.
const TOTPPeriod = 30

// Account is a single TOTP credential. ID and Ordering are assigned by the
// store; GroupID references the owning AccountGroup.
type Account struct {
	ID       int64
	GroupID  int64
	Label    string
	Secret   string // base32 encoded shared secret
	Ordering int
}

// NewAccount returns an unsaved account for the given group.
func NewAccount(groupID int64, label, secret string) Account {
	return Account{GroupID: groupID, Label: label, Secret: secret}
}

// Validate checks the invariants every persisted account must satisfy.
func (a Account) Validate() error {
	if strings.TrimSpace(a.Label) == "" {
		return errors.New("account label is empty")
	}
	if strings.TrimSpace(a.Secret) == "" {
		return errors.New("account secret is empty")
	}
	return nil
}

var secretEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ValidateSecret checks that secret decodes as base32 once spacing, case
// and padding are normalised.
func ValidateSecret(secret string) error {
	s := strings.TrimRight(normalizeSecret(secret), "=")
	if s == "" {
		return errors.New("account secret is empty")
	}
	if _, err := secretEncoding.DecodeString(s); err != nil {
		return fmt.Errorf("account secret is not valid base32: %w", err)
	}
	return nil
}

// Code returns the six digit TOTP code valid at the given instant.
func (a Account) Code(at time.Time) (string, error) {
	return totp.GenerateCode(normalizeSecret(a.Secret), at)
}

// RemainingSeconds returns how long the code generated at the given instant
// stays valid.
func RemainingSeconds(at time.Time) int {
	return TOTPPeriod - int(at.Unix()%TOTPPeriod)
}

// normalizeSecret strips the spacing and lower case some providers use when
// displaying secrets.
func normalizeSecret(secret string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
}
