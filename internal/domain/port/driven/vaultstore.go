package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/totpvault/internal/domain/model"
)

// Sentinel errors returned by VaultStore implementations. They are
// recoverable and reported to the caller unchanged (wrapped with context).
var (
	// ErrGroupNotFound indicates the referenced group does not exist.
	ErrGroupNotFound = errors.New("group not found")

	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrGroupNotEmpty indicates a delete of a group that still has accounts.
	ErrGroupNotEmpty = errors.New("group still has accounts")

	// ErrInvalidGroup indicates a group that violates the model invariants.
	ErrInvalidGroup = errors.New("invalid group")

	// ErrInvalidAccount indicates an account that violates the model invariants.
	ErrInvalidAccount = errors.New("invalid account")
)

// VaultStore defines the driven port for group and account persistence.
//
// Groups are never deleted while they still hold accounts: DeleteGroup
// returns ErrGroupNotEmpty in that case. Each method is a single
// transaction.
type VaultStore interface {
	// LoadAccountGroups returns every group and account in persisted order.
	LoadAccountGroups(ctx context.Context) (*model.Vault, error)

	// AddGroup inserts a group and returns its new identifier.
	AddGroup(ctx context.Context, group model.AccountGroup) (int64, error)
	UpdateGroup(ctx context.Context, group model.AccountGroup) error
	DeleteGroup(ctx context.Context, id int64) error

	// AddAccount inserts an account at the end of the group and returns its
	// new identifier. Returns ErrGroupNotFound for an unknown group.
	AddAccount(ctx context.Context, groupID int64, account model.Account) (int64, error)
	UpdateAccount(ctx context.Context, account model.Account) error
	DeleteAccount(ctx context.Context, id int64) error

	// ReplaceAll atomically swaps the whole store content for the snapshot.
	ReplaceAll(ctx context.Context, snapshot model.Snapshot) error
}
