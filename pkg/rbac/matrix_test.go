package rbac

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

func matrixIdentities() Identities {
	reader := &PrincipalEntry{Roles: map[string]*RoleEntry{
		"Reader": {Leaves: map[string]int{
			LeafKey("s1", "/subscriptions/s1"): 10,
		}},
	}}
	mixed := &PrincipalEntry{Roles: map[string]*RoleEntry{
		"Reader": {Leaves: map[string]int{
			LeafKey("s1", "/subscriptions/s1/resourceGroups/rg-app"): 4,
		}},
		"Contributor": {Leaves: map[string]int{
			LeafKey("s1", "/subscriptions/s1/resourceGroups/rg-app"): 4,
		}},
	}}

	return Identities{
		"Ada Lovelace": {
			"u1": {DisplayName: "Ada Lovelace", JobTitle: "Engineer", RBAC: reader},
		},
		"Sam Chen": {
			"u2": {DisplayName: "Sam Chen", RBAC: mixed},
			"u3": {DisplayName: "Sam Chen (Guest)"},
		},
	}
}

func matrixInventories() map[string]*types.ResourceInventory {
	return map[string]*types.ResourceInventory{
		"s1": {
			SubscriptionID: "s1",
			ResourceCount:  10,
			ResourceGroups: []types.ResourceGroupInventory{
				{ResourceGroupName: "rg-app", ID: "/subscriptions/s1/resourceGroups/rg-app", ResourceCount: 4},
				{ResourceGroupName: "rg-data", ID: "/subscriptions/s1/resourceGroups/rg-data", ResourceCount: 6},
				{ResourceGroupName: "rg-empty", ID: "/subscriptions/s1/resourceGroups/rg-empty", ResourceCount: 0},
			},
		},
	}
}

func TestFlattenRoleMatrixFrequency(t *testing.T) {
	rows := FlattenRoleMatrix(matrixIdentities())
	require.Len(t, rows, 3)

	byRole := make(map[string][]MatrixRow)
	for _, row := range rows {
		byRole[row.Role] = append(byRole[row.Role], row)
	}

	require.Len(t, byRole["Reader"], 2)
	for _, row := range byRole["Reader"] {
		assert.Equal(t, 2, row.PrincipalFrequency, "frequency spans the whole dataset")
	}
	require.Len(t, byRole["Contributor"], 1)
	assert.Equal(t, 1, byRole["Contributor"][0].PrincipalFrequency)

	// Early rows carry frequencies that depend on later leaves, so both
	// Reader rows agree regardless of emission order.
	assert.Equal(t, byRole["Reader"][0].PrincipalFrequency, byRole["Reader"][1].PrincipalFrequency)
}

func TestFlattenRoleMatrixSkipsRecordsWithoutRBAC(t *testing.T) {
	rows := FlattenRoleMatrix(matrixIdentities())
	for _, row := range rows {
		assert.NotEqual(t, "u3", row.PrincipalID)
	}
}

func TestFlattenRoleMatrixDeterministic(t *testing.T) {
	first := FlattenRoleMatrix(matrixIdentities())
	second := FlattenRoleMatrix(matrixIdentities())
	assert.Equal(t, first, second)
}

func TestFlattenRoleMatrixFrequencyOrderIndependent(t *testing.T) {
	type leafTuple struct {
		name, principalID, role, subID, scope string
		count                                 int
	}
	tuples := []leafTuple{
		{"Ada Lovelace", "u1", "Reader", "s1", "/subscriptions/s1", 10},
		{"Ada Lovelace", "u1", "Owner", "s2", "/subscriptions/s2", 3},
		{"Sam Chen", "u2", "Reader", "s1", "/subscriptions/s1/resourceGroups/rg-app", 4},
		{"Sam Chen", "u2", "Contributor", "s1", "/subscriptions/s1/resourceGroups/rg-app", 4},
		{"Sam Chen", "u3", "Reader", "s2", "/subscriptions/s2", 3},
	}

	build := func(order []int) Identities {
		joined := make(Identities)
		for _, i := range order {
			tu := tuples[i]
			if joined[tu.name] == nil {
				joined[tu.name] = make(map[string]IdentityRecord)
			}
			record, ok := joined[tu.name][tu.principalID]
			if !ok {
				record = IdentityRecord{
					DisplayName: tu.name,
					RBAC:        &PrincipalEntry{Roles: make(map[string]*RoleEntry)},
				}
			}
			entry, ok := record.RBAC.Roles[tu.role]
			if !ok {
				entry = &RoleEntry{Leaves: make(map[string]int)}
				record.RBAC.Roles[tu.role] = entry
			}
			entry.Leaves[LeafKey(tu.subID, tu.scope)] += tu.count
			joined[tu.name][tu.principalID] = record
		}
		return joined
	}

	pairs := func(rows []MatrixRow) []string {
		out := make([]string, 0, len(rows))
		for _, row := range rows {
			out = append(out, fmt.Sprintf("%s=%d", row.Role, row.PrincipalFrequency))
		}
		return out
	}

	baseline := []int{0, 1, 2, 3, 4}
	want := pairs(FlattenRoleMatrix(build(baseline)))

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 10; trial++ {
		order := append([]int(nil), baseline...)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		got := pairs(FlattenRoleMatrix(build(order)))
		assert.ElementsMatch(t, want, got, "insertion order %v changed role frequencies", order)
	}
}

func TestFlattenUserMatrixSubscriptionScopeExpands(t *testing.T) {
	joined := Identities{
		"Ada Lovelace": {
			"u1": {DisplayName: "Ada Lovelace", RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Reader": {Leaves: map[string]int{LeafKey("s1", "/subscriptions/s1"): 10}},
			}}},
		},
	}

	rows := FlattenUserMatrix(joined, matrixInventories())

	// One row per nonzero resource group; rg-empty is dropped.
	require.Len(t, rows, 2)
	assert.Equal(t, "/subscriptions/s1/resourceGroups/rg-app", rows[0].ResourcePath)
	assert.Equal(t, 4, rows[0].ResourceCount)
	assert.Equal(t, "/subscriptions/s1/resourceGroups/rg-data", rows[1].ResourcePath)
	assert.Equal(t, 6, rows[1].ResourceCount)
	for _, row := range rows {
		assert.Equal(t, "/subscriptions/s1", row.Scope)
	}
}

func TestFlattenUserMatrixResourceGroupScope(t *testing.T) {
	joined := Identities{
		"Sam Chen": {
			"u2": {DisplayName: "Sam Chen", RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Contributor": {Leaves: map[string]int{
					LeafKey("s1", "/subscriptions/s1/resourceGroups/RG-APP"): 4,
				}},
			}}},
		},
	}

	rows := FlattenUserMatrix(joined, matrixInventories())

	require.Len(t, rows, 1)
	assert.Equal(t, 4, rows[0].ResourceCount)
	// Case-insensitive match resolves to the inventory's canonical ID.
	assert.Equal(t, "/subscriptions/s1/resourceGroups/rg-app", rows[0].ResourcePath)
}

func TestFlattenUserMatrixZeroResourceGroupDropped(t *testing.T) {
	joined := Identities{
		"Sam Chen": {
			"u2": {DisplayName: "Sam Chen", RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Contributor": {Leaves: map[string]int{
					LeafKey("s1", "/subscriptions/s1/resourceGroups/rg-empty"): 0,
				}},
			}}},
		},
	}

	rows := FlattenUserMatrix(joined, matrixInventories())
	assert.Empty(t, rows)
}

func TestFlattenUserMatrixUnknownSubscription(t *testing.T) {
	joined := Identities{
		"Ada Lovelace": {
			"u1": {DisplayName: "Ada Lovelace", RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Reader": {Leaves: map[string]int{
					LeafKey("s-missing", "/subscriptions/s-missing/resourceGroups/rg-x"): 1,
				}},
			}}},
		},
	}

	rows := FlattenUserMatrix(joined, matrixInventories())

	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ResourceCount)
	assert.Equal(t, "/subscriptions/s-missing/resourceGroups/rg-x", rows[0].ResourcePath)
}

func TestFlattenUserMatrixResourceLevelScope(t *testing.T) {
	scope := "/subscriptions/s1/resourceGroups/rg-app/providers/Microsoft.Storage/storageAccounts/stapp"
	joined := Identities{
		"Ada Lovelace": {
			"u1": {DisplayName: "Ada Lovelace", RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Reader": {Leaves: map[string]int{LeafKey("s1", scope): 1}},
			}}},
		},
	}

	rows := FlattenUserMatrix(joined, matrixInventories())

	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ResourceCount)
	assert.Equal(t, scope, rows[0].ResourcePath)
}
