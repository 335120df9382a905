package model

import "fmt"

// Vault is the in-memory view of the whole account store. Groups are kept in
// persisted order and hold account identifiers; accounts are kept in a flat
// table keyed by identifier.
type Vault struct {
	Groups   []AccountGroup
	Accounts map[int64]Account
}

// NewVault returns an empty vault.
func NewVault() *Vault {
	return &Vault{Accounts: make(map[int64]Account)}
}

// AddGroup appends a group. Any AccountIDs already set on g are discarded;
// accounts are attached with AddAccount.
func (v *Vault) AddGroup(g AccountGroup) {
	g.AccountIDs = nil
	v.Groups = append(v.Groups, g)
}

// AddAccount stores the account and appends its identifier to its group.
func (v *Vault) AddAccount(a Account) error {
	g := v.group(a.GroupID)
	if g == nil {
		return fmt.Errorf("account %d references unknown group %d", a.ID, a.GroupID)
	}
	if _, exists := v.Accounts[a.ID]; exists {
		return fmt.Errorf("duplicate account id %d", a.ID)
	}
	v.Accounts[a.ID] = a
	g.AccountIDs = append(g.AccountIDs, a.ID)
	return nil
}

// Group returns the group with the given identifier.
func (v *Vault) Group(id int64) (AccountGroup, bool) {
	if g := v.group(id); g != nil {
		return *g, true
	}
	return AccountGroup{}, false
}

// Entries returns the accounts of a group in display order.
func (v *Vault) Entries(groupID int64) []Account {
	g := v.group(groupID)
	if g == nil {
		return nil
	}
	entries := make([]Account, 0, len(g.AccountIDs))
	for _, id := range g.AccountIDs {
		entries = append(entries, v.Accounts[id])
	}
	return entries
}

// Len returns the number of groups and accounts.
func (v *Vault) Len() (groups, accounts int) {
	return len(v.Groups), len(v.Accounts)
}

// Snapshot returns the identifier-free tree of the vault.
func (v *Vault) Snapshot() Snapshot {
	var snap Snapshot
	for _, g := range v.Groups {
		gs := GroupSnapshot{Name: g.Name, URL: g.URL}
		for _, a := range v.Entries(g.ID) {
			gs.Entries = append(gs.Entries, AccountSnapshot{Label: a.Label, Secret: a.Secret})
		}
		snap.Groups = append(snap.Groups, gs)
	}
	return snap
}

func (v *Vault) group(id int64) *AccountGroup {
	for i := range v.Groups {
		if v.Groups[i].ID == id {
			return &v.Groups[i]
		}
	}
	return nil
}
