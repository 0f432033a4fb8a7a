package rbac

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

func scenarioInput() AggregateInput {
	rg1Scope := "/subscriptions/S1/resourceGroups/RG1"

	return AggregateInput{
		Subscriptions: []types.Subscription{{ID: "S1", Name: "Subscription One"}},
		DirectBySub: map[string]types.AssignmentsByPrincipal{
			"S1": {
				"U1": {
					PrincipalID:        "U1",
					PrincipalType:      "User",
					RoleDefinitionName: "Reader",
					Scope:              "/subscriptions/S1",
				},
			},
		},
		GroupBySub: map[string]types.AssignmentsByPrincipal{
			"S1": {
				"G1": {
					PrincipalID:        "G1",
					PrincipalType:      "Group",
					RoleDefinitionName: "Contributor",
					Scope:              rg1Scope,
				},
			},
		},
		MembershipBySub: map[string]types.GroupMembershipBySubscription{
			"S1": {
				"G1": {
					DisplayName: "Group One",
					Members:     types.GroupMembers{Users: []string{"U2"}},
				},
			},
		},
		InventoryBySub: map[string]*types.ResourceInventory{
			"S1": {
				SubscriptionID: "S1",
				ResourceCount:  10,
				ResourceGroups: []types.ResourceGroupInventory{
					{ResourceGroupName: "RG1", ID: rg1Scope, ResourceCount: 4},
				},
			},
		},
	}
}

func TestBuildAggregateScenario(t *testing.T) {
	aggregate := BuildAggregate(scenarioInput())

	u1 := aggregate["U1"]
	require.NotNil(t, u1)
	assert.Equal(t, 10, u1.Total)
	require.Contains(t, u1.Roles, "Reader")
	assert.Equal(t, 10, u1.Roles["Reader"].Total)
	assert.Equal(t, 10, u1.Roles["Reader"].Leaves[LeafKey("S1", "/subscriptions/S1")])

	u2 := aggregate["U2"]
	require.NotNil(t, u2)
	assert.Equal(t, 4, u2.Total)
	require.Contains(t, u2.Roles, "Contributor")
	assert.Equal(t, 4, u2.Roles["Contributor"].Total)
	assert.Equal(t, 4, u2.Roles["Contributor"].Leaves[LeafKey("S1", "/subscriptions/S1/resourceGroups/RG1")])

	// The group principal itself never appears; only its users do.
	assert.NotContains(t, aggregate, "G1")
}

func TestBuildAggregateMissingMembershipSkipsGroups(t *testing.T) {
	in := scenarioInput()
	delete(in.MembershipBySub, "S1")

	aggregate := BuildAggregate(in)

	assert.Contains(t, aggregate, "U1", "direct assignments survive a missing expansion")
	assert.NotContains(t, aggregate, "U2", "group contributions are skipped without an expansion")
}

func TestBuildAggregateMissingExpansionForOneGroup(t *testing.T) {
	in := scenarioInput()
	in.GroupBySub["S1"]["G2"] = types.RoleAssignment{
		PrincipalID:        "G2",
		PrincipalType:      "Group",
		RoleDefinitionName: "Owner",
		Scope:              "/subscriptions/S1",
	}

	aggregate := BuildAggregate(in)

	// G2 has no expansion record: no partial credit.
	for principalID, principal := range aggregate {
		assert.NotContains(t, principal.Roles, "Owner", "principal %s", principalID)
	}
	assert.Contains(t, aggregate, "U2")
}

func TestBuildAggregateRepeatedLeavesAccumulate(t *testing.T) {
	in := scenarioInput()
	// A second group granting the same role at the same scope to U2.
	in.GroupBySub["S1"]["G3"] = types.RoleAssignment{
		PrincipalID:        "G3",
		PrincipalType:      "Group",
		RoleDefinitionName: "Contributor",
		Scope:              "/subscriptions/S1/resourceGroups/RG1",
	}
	in.MembershipBySub["S1"]["G3"] = types.GroupMembershipRecord{
		DisplayName: "Group Three",
		Members:     types.GroupMembers{Users: []string{"U2"}},
	}

	aggregate := BuildAggregate(in)

	u2 := aggregate["U2"]
	require.NotNil(t, u2)
	// Same (sub, scope) leaf reached via two assignment records: counts sum.
	assert.Equal(t, 8, u2.Roles["Contributor"].Leaves[LeafKey("S1", "/subscriptions/S1/resourceGroups/RG1")])
	assert.Equal(t, 8, u2.Roles["Contributor"].Total)
	assert.Equal(t, 8, u2.Total)
}

func TestCountConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	aggregate := make(Aggregate)
	for p := 0; p < 20; p++ {
		principal := string(rune('a' + p%26))
		for r := 0; r < 1+rng.Intn(5); r++ {
			role := string(rune('A' + r))
			for l := 0; l < 1+rng.Intn(6); l++ {
				aggregate.Add(principal, role, "sub", string(rune('0'+l)), rng.Intn(50))
			}
		}
	}
	aggregate.bubbleUp()

	for principalID, principal := range aggregate {
		principalSum := 0
		for role, entry := range principal.Roles {
			leafSum := 0
			for _, count := range entry.Leaves {
				leafSum += count
			}
			assert.Equal(t, leafSum, entry.Total, "role total for %s/%s", principalID, role)
			principalSum += entry.Total
		}
		assert.Equal(t, principalSum, principal.Total, "principal total for %s", principalID)
	}
}

func TestAggregateJSONRoundTrip(t *testing.T) {
	aggregate := BuildAggregate(scenarioInput())

	data, err := json.Marshal(aggregate)
	require.NoError(t, err)

	// Wire form carries the bracketed count prefixes.
	assert.Contains(t, string(data), `"[10]U1"`)
	assert.Contains(t, string(data), `"[10]Reader"`)
	assert.Contains(t, string(data), `"[4]Contributor"`)
	assert.Contains(t, string(data), `"[4]S1"`)

	var parsed Aggregate
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, aggregate["U1"].Total, parsed["U1"].Total)
	assert.Equal(t, aggregate["U2"].Roles["Contributor"].Leaves, parsed["U2"].Roles["Contributor"].Leaves)
}

func TestAggregateMarshalDeterministic(t *testing.T) {
	first, err := json.Marshal(BuildAggregate(scenarioInput()))
	require.NoError(t, err)
	second, err := json.Marshal(BuildAggregate(scenarioInput()))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
