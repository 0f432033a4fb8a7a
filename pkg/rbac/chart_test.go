package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartIdentities() Identities {
	return Identities{
		"Ada Lovelace": {
			"u1": {JobTitle: "Engineer", RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Reader": {Total: 10, Leaves: map[string]int{
					LeafKey("s1", "/subscriptions/s1"): 10,
				}},
			}}},
			"u1-guest": {RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Reader": {Total: 2, Leaves: map[string]int{
					LeafKey("s2", "/subscriptions/s2"): 2,
				}},
			}}},
		},
		"Sam_Chen": {
			"u2": {RBAC: &PrincipalEntry{Roles: map[string]*RoleEntry{
				"Contributor": {Total: 4, Leaves: map[string]int{
					LeafKey("s1", "/subscriptions/s1/resourceGroups/rg-app"): 4,
				}},
			}}},
		},
		"No Access": {
			"u3": {JobTitle: "Analyst"},
		},
	}
}

func TestBuildUserBubblesMergesPrincipals(t *testing.T) {
	bubbles := BuildUserBubbles(chartIdentities())
	require.Len(t, bubbles, 3)

	byName := make(map[string]UserBubble)
	for _, b := range bubbles {
		byName[b.UserName] = b
	}

	ada := byName["Ada Lovelace"]
	assert.Equal(t, 12, ada.TotalResourceCount, "sibling principals sum role for role")
	require.Len(t, ada.Roles, 1)
	assert.Equal(t, RoleSlice{RoleName: "Reader", Count: 12}, ada.Roles[0])
	assert.Equal(t, "Engineer", ada.JobTitle)

	// Underscores are stripped from the display name.
	sam, ok := byName["SamChen"]
	require.True(t, ok)
	assert.Equal(t, 4, sam.TotalResourceCount)

	assert.Equal(t, 0, byName["No Access"].TotalResourceCount)
}

func TestFilterAboveAverage(t *testing.T) {
	bubbles := []UserBubble{
		{UserName: "A", TotalResourceCount: 10},
		{UserName: "B", TotalResourceCount: 2},
		{UserName: "C", TotalResourceCount: 3},
	}

	filtered, avg := FilterAboveAverage(bubbles)

	assert.InDelta(t, 5.0, avg, 1e-9)
	require.Len(t, filtered, 1)
	assert.Equal(t, "A", filtered[0].UserName)
}

func TestFilterAboveAverageEmpty(t *testing.T) {
	filtered, avg := FilterAboveAverage(nil)
	assert.Nil(t, filtered)
	assert.Zero(t, avg)
}

func TestFilterAboveAverageAllEqual(t *testing.T) {
	bubbles := []UserBubble{
		{UserName: "A", TotalResourceCount: 5},
		{UserName: "B", TotalResourceCount: 5},
	}

	// Nobody strictly exceeds the mean when everyone matches it.
	filtered, _ := FilterAboveAverage(bubbles)
	assert.Empty(t, filtered)
}

func TestBuildRoleBubbles(t *testing.T) {
	bubbles := BuildRoleBubbles(chartIdentities())
	require.Len(t, bubbles, 2)

	// Sorted by role name.
	assert.Equal(t, "Contributor", bubbles[0].RoleName)
	assert.Equal(t, 1, bubbles[0].AssignmentCount)
	assert.Equal(t, []string{"/subscriptions/s1/resourceGroups/rg-app"}, bubbles[0].Scopes)

	assert.Equal(t, "Reader", bubbles[1].RoleName)
	assert.Equal(t, 2, bubbles[1].AssignmentCount, "one count per leaf, not per resource")
	assert.Equal(t, []string{"/subscriptions/s1", "/subscriptions/s2"}, bubbles[1].Scopes)
}
