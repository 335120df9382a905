package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/totpvault/internal/domain/model"
	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VaultStore = (*VaultRepo)(nil)

// VaultRepo is the SQLite implementation of the VaultStore port interface.
type VaultRepo struct {
	db *DB
}

// NewVaultRepo creates a new VaultRepo backed by the given DB.
func NewVaultRepo(db *DB) *VaultRepo {
	return &VaultRepo{db: db}
}

// LoadAccountGroups reads every group ordered by identifier and every
// account ordered by its position within the group.
func (r *VaultRepo) LoadAccountGroups(ctx context.Context) (*model.Vault, error) {
	vault := model.NewVault()

	err := r.db.Do(ctx, func(q Querier) error {
		if err := loadGroups(ctx, q, vault); err != nil {
			return err
		}
		return loadAccounts(ctx, q, vault)
	})
	if err != nil {
		return nil, err
	}

	return vault, nil
}

func loadGroups(ctx context.Context, q Querier, vault *model.Vault) error {
	const query = `SELECT id, name, icon, url FROM groups ORDER BY id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g model.AccountGroup
		var icon, url sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &icon, &url); err != nil {
			return fmt.Errorf("scan group: %w", err)
		}
		g.Icon = model.OptionalString(icon.String)
		g.URL = model.OptionalString(url.String)
		vault.AddGroup(g)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate groups: %w", err)
	}
	return nil
}

func loadAccounts(ctx context.Context, q Querier, vault *model.Vault) error {
	const query = `SELECT id, group_id, label, secret, ordering FROM accounts ORDER BY group_id, ordering, id`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.GroupID, &a.Label, &a.Secret, &a.Ordering); err != nil {
			return fmt.Errorf("scan account: %w", err)
		}
		if err := vault.AddAccount(a); err != nil {
			return fmt.Errorf("load account %d: %w", a.ID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate accounts: %w", err)
	}
	return nil
}

// AddGroup inserts a group and returns its identifier.
func (r *VaultRepo) AddGroup(ctx context.Context, group model.AccountGroup) (int64, error) {
	if err := group.Validate(); err != nil {
		return 0, fmt.Errorf("add group: %w: %w", driven.ErrInvalidGroup, err)
	}

	var id int64
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertGroup(ctx, tx, group.Name, group.Icon, group.URL)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add group %q: %w", group.Name, err)
	}
	return id, nil
}

// UpdateGroup replaces the name, icon and url of an existing group.
func (r *VaultRepo) UpdateGroup(ctx context.Context, group model.AccountGroup) error {
	if err := group.Validate(); err != nil {
		return fmt.Errorf("update group %d: %w: %w", group.ID, driven.ErrInvalidGroup, err)
	}

	const query = `UPDATE groups SET name = ?, icon = ?, url = ? WHERE id = ?`

	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, group.Name, nullString(group.Icon), nullString(group.URL), group.ID)
		if err != nil {
			return err
		}
		return expectOneRow(result, driven.ErrGroupNotFound)
	})
	if err != nil {
		return fmt.Errorf("update group %d: %w", group.ID, err)
	}
	return nil
}

// DeleteGroup removes an empty group. Groups that still hold accounts are
// never removed; ErrGroupNotEmpty is returned instead.
func (r *VaultRepo) DeleteGroup(ctx context.Context, id int64) error {
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		var entries int
		const count = `SELECT COUNT(*) FROM accounts WHERE group_id = ?`
		if err := tx.QueryRowContext(ctx, count, id).Scan(&entries); err != nil {
			return fmt.Errorf("count accounts: %w", err)
		}
		if entries > 0 {
			return fmt.Errorf("%w (%d accounts)", driven.ErrGroupNotEmpty, entries)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return expectOneRow(result, driven.ErrGroupNotFound)
	})
	if err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	return nil
}

// AddAccount appends an account to the end of an existing group.
func (r *VaultRepo) AddAccount(ctx context.Context, groupID int64, account model.Account) (int64, error) {
	account.GroupID = groupID
	if err := account.Validate(); err != nil {
		return 0, fmt.Errorf("add account: %w: %w", driven.ErrInvalidAccount, err)
	}

	var id int64
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		if err := requireGroup(ctx, tx, groupID); err != nil {
			return err
		}
		ordering, err := nextOrdering(ctx, tx, groupID)
		if err != nil {
			return err
		}
		id, err = insertAccount(ctx, tx, groupID, account.Label, account.Secret, ordering)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add account %q to group %d: %w", account.Label, groupID, err)
	}
	return id, nil
}

// UpdateAccount replaces the label, secret and group of an existing account.
// Moving an account to another group places it at the end of that group.
func (r *VaultRepo) UpdateAccount(ctx context.Context, account model.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("update account %d: %w: %w", account.ID, driven.ErrInvalidAccount, err)
	}

	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		var currentGroup int64
		var ordering int
		const current = `SELECT group_id, ordering FROM accounts WHERE id = ?`
		err := tx.QueryRowContext(ctx, current, account.ID).Scan(&currentGroup, &ordering)
		if errors.Is(err, sql.ErrNoRows) {
			return driven.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("get account: %w", err)
		}

		if account.GroupID != currentGroup {
			if err := requireGroup(ctx, tx, account.GroupID); err != nil {
				return err
			}
			if ordering, err = nextOrdering(ctx, tx, account.GroupID); err != nil {
				return err
			}
		}

		const query = `UPDATE accounts SET group_id = ?, label = ?, secret = ?, ordering = ? WHERE id = ?`
		_, err = tx.ExecContext(ctx, query, account.GroupID, account.Label, account.Secret, ordering, account.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("update account %d: %w", account.ID, err)
	}
	return nil
}

// DeleteAccount removes an account by identifier.
func (r *VaultRepo) DeleteAccount(ctx context.Context, id int64) error {
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return expectOneRow(result, driven.ErrAccountNotFound)
	})
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

// ReplaceAll deletes every group and account and inserts the snapshot in
// one transaction. The snapshot is validated before the store is touched.
// Icons are not part of a snapshot, so restored groups have none.
func (r *VaultRepo) ReplaceAll(ctx context.Context, snapshot model.Snapshot) error {
	for i, g := range snapshot.Groups {
		if err := (model.AccountGroup{Name: g.Name, URL: g.URL}).Validate(); err != nil {
			return fmt.Errorf("replace all: group %d: %w: %w", i, driven.ErrInvalidGroup, err)
		}
		for j, e := range g.Entries {
			if err := model.NewAccount(0, e.Label, e.Secret).Validate(); err != nil {
				return fmt.Errorf("replace all: group %d entry %d: %w: %w", i, j, driven.ErrInvalidAccount, err)
			}
		}
	}

	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts`); err != nil {
			return fmt.Errorf("clear accounts: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM groups`); err != nil {
			return fmt.Errorf("clear groups: %w", err)
		}

		for _, g := range snapshot.Groups {
			groupID, err := insertGroup(ctx, tx, g.Name, nil, g.URL)
			if err != nil {
				return err
			}
			for ordering, e := range g.Entries {
				if _, err := insertAccount(ctx, tx, groupID, e.Label, e.Secret, ordering); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace all: %w", err)
	}
	return nil
}

func insertGroup(ctx context.Context, tx *sql.Tx, name string, icon, url *string) (int64, error) {
	const query = `INSERT INTO groups (name, icon, url) VALUES (?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, name, nullString(icon), nullString(url))
	if err != nil {
		return 0, fmt.Errorf("insert group %q: %w", name, err)
	}
	return result.LastInsertId()
}

func insertAccount(ctx context.Context, tx *sql.Tx, groupID int64, label, secret string, ordering int) (int64, error) {
	const query = `INSERT INTO accounts (group_id, label, secret, ordering) VALUES (?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, groupID, label, secret, ordering)
	if err != nil {
		return 0, fmt.Errorf("insert account %q: %w", label, err)
	}
	return result.LastInsertId()
}

func requireGroup(ctx context.Context, tx *sql.Tx, groupID int64) error {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM groups WHERE id = ?)`
	if err := tx.QueryRowContext(ctx, query, groupID).Scan(&exists); err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	if !exists {
		return driven.ErrGroupNotFound
	}
	return nil
}

func nextOrdering(ctx context.Context, tx *sql.Tx, groupID int64) (int, error) {
	var next int
	const query = `SELECT COALESCE(MAX(ordering) + 1, 0) FROM accounts WHERE group_id = ?`
	if err := tx.QueryRowContext(ctx, query, groupID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next ordering: %w", err)
	}
	return next, nil
}

// expectOneRow maps "no row affected" to the given not-found sentinel.
func expectOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
