package model

import "fmt"

// Snapshot is the identifier-free form of a vault. It is what backups carry
// and what a restore re-inserts; icons are not part of it.
type Snapshot struct {
	Groups []GroupSnapshot
}

// GroupSnapshot is a group without identifier or icon.
type GroupSnapshot struct {
	Name    string
	URL     *string
	Entries []AccountSnapshot
}

// AccountSnapshot is an account without identifiers.
type AccountSnapshot struct {
	Label  string
	Secret string
}

// Validate checks every group and entry, reporting the first offender by
// position. Unlike a single account edit, every secret must be valid base32.
func (s Snapshot) Validate() error {
	for i, g := range s.Groups {
		if err := (AccountGroup{Name: g.Name, URL: g.URL}).Validate(); err != nil {
			return fmt.Errorf("group %d: %w", i, err)
		}
		for j, e := range g.Entries {
			if err := (Account{Label: e.Label, Secret: e.Secret}).Validate(); err != nil {
				return fmt.Errorf("group %d (%s) entry %d: %w", i, g.Name, j, err)
			}
			if err := ValidateSecret(e.Secret); err != nil {
				return fmt.Errorf("group %d (%s) entry %d: %w", i, g.Name, j, err)
			}
		}
	}
	return nil
}

// Accounts returns the total number of entries across all groups.
func (s Snapshot) Accounts() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Entries)
	}
	return n
}
