package rbac

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	subs := []types.Subscription{
		{ID: "s1", Name: "Subscription One", State: "Enabled"},
		{ID: "s2", Name: "Subscription Two", State: "Disabled"},
	}
	require.NoError(t, store.Save(SubscriptionsFile, subs))

	loaded, err := store.LoadSubscriptions()
	require.NoError(t, err)
	assert.Equal(t, subs, loaded)
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.LoadSubscriptions()
	assert.True(t, os.IsNotExist(err))

	// Per-subscription snapshots degrade to nil instead of erroring.
	inv, err := store.LoadInventory("s1")
	assert.NoError(t, err)
	assert.Nil(t, inv)

	assignments, err := store.LoadAssignments("s1", "User")
	assert.NoError(t, err)
	assert.Nil(t, assignments)

	members, err := store.LoadGroupMembers("s1")
	assert.NoError(t, err)
	assert.Nil(t, members)
}

func TestStoreMalformedSnapshotNamesPath(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	path := store.Path(SubscriptionsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := store.LoadSubscriptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestStoreSaveCreatesParentDirs(t *testing.T) {
	store := NewStore(t.TempDir())

	inv := &types.ResourceInventory{SubscriptionID: "s1", ResourceCount: 3}
	require.NoError(t, store.SaveAt(store.ResourcesPath("s1"), inv))

	loaded, err := store.LoadInventory("s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 3, loaded.ResourceCount)
}

func TestStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	require.NoError(t, store.Save(RoleDefinitionsFile, map[string]string{"id": "Reader"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, RoleDefinitionsFile, entries[0].Name())
}

func TestAssignmentsPathSanitizesPrincipalType(t *testing.T) {
	store := NewStore("/tmp/out")

	assert.Equal(t,
		filepath.Join("/tmp/out", "assignments", "s1", "serviceprincipal.json"),
		store.AssignmentsPath("s1", "ServicePrincipal"))
	assert.Equal(t,
		filepath.Join("/tmp/out", "assignments", "s1", "unknown.json"),
		store.AssignmentsPath("s1", "Unknown"))
}

func TestStoreAssignmentsRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	assignments := types.AssignmentsByPrincipal{
		"u1": {
			PrincipalID:        "u1",
			PrincipalType:      "User",
			RoleDefinitionName: "Reader",
			Scope:              "/subscriptions/s1",
			SubscriptionID:     "s1",
		},
	}
	require.NoError(t, store.SaveAt(store.AssignmentsPath("s1", "User"), assignments))

	loaded, err := store.LoadAssignments("s1", "User")
	require.NoError(t, err)
	assert.Equal(t, assignments, loaded)
}
