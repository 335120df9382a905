package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/totpvault/internal/domain/model"
	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

const testSecret = "JBSWY3DPEHPK3PXP"

func TestVaultRepo_EmptyStore(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))

	vault, err := repo.LoadAccountGroups(context.Background())

	require.NoError(t, err)
	assert.Empty(t, vault.Groups)
	assert.Empty(t, vault.Accounts)
}

func TestVaultRepo_AddGroupAndAccount(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()

	groupID, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)
	assert.NotZero(t, groupID)

	accountID, err := repo.AddAccount(ctx, groupID, model.NewAccount(0, "GitHub", testSecret))
	require.NoError(t, err)
	assert.NotZero(t, accountID)

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	require.Len(t, vault.Groups, 1)
	assert.Equal(t, "Work", vault.Groups[0].Name)
	assert.Nil(t, vault.Groups[0].URL)
	assert.Nil(t, vault.Groups[0].Icon)

	entries := vault.Entries(groupID)
	require.Len(t, entries, 1)
	assert.Equal(t, accountID, entries[0].ID)
	assert.Equal(t, "GitHub", entries[0].Label)
	assert.Equal(t, testSecret, entries[0].Secret)
}

func TestVaultRepo_OptionalFieldsRoundTrip(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()

	groupID, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "work.png", "https://example.com"))
	require.NoError(t, err)

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	g, ok := vault.Group(groupID)
	require.True(t, ok)
	assert.Equal(t, "work.png", model.StringValue(g.Icon))
	assert.Equal(t, "https://example.com", model.StringValue(g.URL))
}

func TestVaultRepo_PreservesOrdering(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()

	personal, err := repo.AddGroup(ctx, model.NewAccountGroup("Personal", "", ""))
	require.NoError(t, err)
	work, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)

	for _, label := range []string{"Zulu", "Alpha", "Mike"} {
		_, err := repo.AddAccount(ctx, work, model.NewAccount(0, label, testSecret))
		require.NoError(t, err)
	}
	_, err = repo.AddAccount(ctx, personal, model.NewAccount(0, "Bank", testSecret))
	require.NoError(t, err)

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	require.Len(t, vault.Groups, 2)
	assert.Equal(t, "Personal", vault.Groups[0].Name)
	assert.Equal(t, "Work", vault.Groups[1].Name)

	var labels []string
	for _, a := range vault.Entries(work) {
		labels = append(labels, a.Label)
	}
	assert.Equal(t, []string{"Zulu", "Alpha", "Mike"}, labels)
}

func TestVaultRepo_AddGroupInvalid(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))

	_, err := repo.AddGroup(context.Background(), model.NewAccountGroup("   ", "", ""))

	assert.ErrorIs(t, err, driven.ErrInvalidGroup)
}

func TestVaultRepo_AddAccountUnknownGroup(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))

	_, err := repo.AddAccount(context.Background(), 42, model.NewAccount(0, "GitHub", testSecret))

	assert.ErrorIs(t, err, driven.ErrGroupNotFound)
}

func TestVaultRepo_AddAccountEmptySecret(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	groupID, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)

	_, err = repo.AddAccount(ctx, groupID, model.NewAccount(0, "GitHub", ""))

	assert.ErrorIs(t, err, driven.ErrInvalidAccount)
}

func TestVaultRepo_UpdateGroup(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	groupID, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "work.png", ""))
	require.NoError(t, err)

	updated := model.NewAccountGroup("Office", "", "https://office.example.com")
	updated.ID = groupID
	require.NoError(t, repo.UpdateGroup(ctx, updated))

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	g, ok := vault.Group(groupID)
	require.True(t, ok)
	assert.Equal(t, "Office", g.Name)
	assert.Nil(t, g.Icon)
	assert.Equal(t, "https://office.example.com", model.StringValue(g.URL))
}

func TestVaultRepo_UpdateGroupNotFound(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))

	g := model.NewAccountGroup("Work", "", "")
	g.ID = 99
	err := repo.UpdateGroup(context.Background(), g)

	assert.ErrorIs(t, err, driven.ErrGroupNotFound)
}

func TestVaultRepo_DeleteEmptyGroup(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	groupID, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteGroup(ctx, groupID))

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, vault.Groups)
}

func TestVaultRepo_DeleteNonEmptyGroupBlocked(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	groupID, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)
	_, err = repo.AddAccount(ctx, groupID, model.NewAccount(0, "GitHub", testSecret))
	require.NoError(t, err)

	// The policy holds on every attempt, not just the first.
	for range 2 {
		err = repo.DeleteGroup(ctx, groupID)
		assert.ErrorIs(t, err, driven.ErrGroupNotEmpty)
	}

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	require.Len(t, vault.Groups, 1)
	assert.Len(t, vault.Entries(groupID), 1)
}

func TestVaultRepo_DeleteGroupNotFound(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))

	err := repo.DeleteGroup(context.Background(), 7)

	assert.ErrorIs(t, err, driven.ErrGroupNotFound)
}

func TestVaultRepo_UpdateAccountMovesToEndOfGroup(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	work, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)
	personal, err := repo.AddGroup(ctx, model.NewAccountGroup("Personal", "", ""))
	require.NoError(t, err)
	_, err = repo.AddAccount(ctx, personal, model.NewAccount(0, "Bank", testSecret))
	require.NoError(t, err)
	accountID, err := repo.AddAccount(ctx, work, model.NewAccount(0, "GitHub", testSecret))
	require.NoError(t, err)

	moved := model.NewAccount(personal, "GitHub (personal)", "GEZDGNBVGY3TQOJQ")
	moved.ID = accountID
	require.NoError(t, repo.UpdateAccount(ctx, moved))

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, vault.Entries(work))
	entries := vault.Entries(personal)
	require.Len(t, entries, 2)
	assert.Equal(t, "Bank", entries[0].Label)
	assert.Equal(t, "GitHub (personal)", entries[1].Label)
	assert.Equal(t, "GEZDGNBVGY3TQOJQ", entries[1].Secret)
	assert.Equal(t, 1, entries[1].Ordering)
}

func TestVaultRepo_UpdateAccountErrors(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	work, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)
	accountID, err := repo.AddAccount(ctx, work, model.NewAccount(0, "GitHub", testSecret))
	require.NoError(t, err)

	missing := model.NewAccount(work, "Ghost", testSecret)
	missing.ID = accountID + 100
	assert.ErrorIs(t, repo.UpdateAccount(ctx, missing), driven.ErrAccountNotFound)

	badGroup := model.NewAccount(work+100, "GitHub", testSecret)
	badGroup.ID = accountID
	assert.ErrorIs(t, repo.UpdateAccount(ctx, badGroup), driven.ErrGroupNotFound)

	blank := model.NewAccount(work, "GitHub", " ")
	blank.ID = accountID
	assert.ErrorIs(t, repo.UpdateAccount(ctx, blank), driven.ErrInvalidAccount)
}

func TestVaultRepo_DeleteAccount(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	work, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)
	accountID, err := repo.AddAccount(ctx, work, model.NewAccount(0, "GitHub", testSecret))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteAccount(ctx, accountID))
	assert.ErrorIs(t, repo.DeleteAccount(ctx, accountID), driven.ErrAccountNotFound)

	// With its last entry gone the group can be deleted.
	require.NoError(t, repo.DeleteGroup(ctx, work))
}

func TestVaultRepo_ReplaceAll(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	old, err := repo.AddGroup(ctx, model.NewAccountGroup("Old", "old.png", ""))
	require.NoError(t, err)
	_, err = repo.AddAccount(ctx, old, model.NewAccount(0, "Legacy", testSecret))
	require.NoError(t, err)

	url := "https://example.com"
	snap := model.Snapshot{Groups: []model.GroupSnapshot{
		{Name: "Work", URL: &url, Entries: []model.AccountSnapshot{{Label: "GitHub", Secret: testSecret}, {Label: "GitLab", Secret: testSecret}}},
		{Name: "Empty"},
	}}
	require.NoError(t, repo.ReplaceAll(ctx, snap))

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, vault.Snapshot())
	for _, g := range vault.Groups {
		assert.Nil(t, g.Icon, "restored groups carry no icon")
	}
}

func TestVaultRepo_ReplaceAllInvalidLeavesStoreUntouched(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	work, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)
	_, err = repo.AddAccount(ctx, work, model.NewAccount(0, "GitHub", testSecret))
	require.NoError(t, err)
	before, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)

	snap := model.Snapshot{Groups: []model.GroupSnapshot{
		{Name: "Fine", Entries: []model.AccountSnapshot{{Label: "ok", Secret: testSecret}}},
		{Name: "Broken", Entries: []model.AccountSnapshot{{Label: "no secret"}}},
	}}
	err = repo.ReplaceAll(ctx, snap)
	assert.ErrorIs(t, err, driven.ErrInvalidAccount)

	after, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestVaultRepo_ConcurrentAccessSerialised(t *testing.T) {
	repo := NewVaultRepo(setupTestDB(t))
	ctx := context.Background()
	work, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := repo.AddAccount(ctx, work, model.NewAccount(0, "GitHub", testSecret))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := repo.LoadAccountGroups(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	vault, err := repo.LoadAccountGroups(ctx)
	require.NoError(t, err)
	entries := vault.Entries(work)
	require.Len(t, entries, 20)
	for i, a := range entries {
		assert.Equal(t, i, a.Ordering)
	}
}

func TestDB_TxReleasesHandleOnError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewVaultRepo(db)
	ctx := context.Background()

	// Failing operations must not leave the handle locked.
	assert.Error(t, repo.DeleteGroup(ctx, 1))
	assert.Error(t, repo.DeleteAccount(ctx, 1))

	_, err := repo.AddGroup(ctx, model.NewAccountGroup("Work", "", ""))
	require.NoError(t, err)
}
