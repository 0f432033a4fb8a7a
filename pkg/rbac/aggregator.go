package rbac

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// RoleEntry holds one role's leaves under a principal. Leaves are keyed
// "subscriptionID:scope" and accumulate additively: the same (sub, scope)
// pair reached through multiple assignment records sums rather than
// overwrites.
type RoleEntry struct {
	Total  int
	Leaves map[string]int
}

// PrincipalEntry holds one principal's roles. Total is the sum of all role
// totals, which are in turn the sum of their leaf counts. Totals are derived
// by Aggregate.bubbleUp; mutating a leaf afterwards without recomputing
// ancestors violates the count-conservation invariant.
type PrincipalEntry struct {
	Total int
	Roles map[string]*RoleEntry
}

// Aggregate is the three-level principal -> role -> (subscription:scope)
// count tree. The JSON form embeds subtree sums as bracketed key prefixes;
// in memory the counts stay numeric.
type Aggregate map[string]*PrincipalEntry

// LeafKey builds the in-memory leaf key for a (subscription, scope) pair.
func LeafKey(subscriptionID, scope string) string {
	return subscriptionID + ":" + scope
}

// SplitLeafKey splits a leaf key at the first ':'. A key without a separator
// yields the whole string as the subscription with an empty scope.
func SplitLeafKey(key string) (subscriptionID, scope string) {
	if idx := strings.Index(key, ":"); idx >= 0 {
		return key[:idx], key[idx+1:]
	}
	return key, ""
}

// Add accumulates one leaf contribution.
func (a Aggregate) Add(principalID, role, subscriptionID, scope string, count int) {
	principal, ok := a[principalID]
	if !ok {
		principal = &PrincipalEntry{Roles: make(map[string]*RoleEntry)}
		a[principalID] = principal
	}

	entry, ok := principal.Roles[role]
	if !ok {
		entry = &RoleEntry{Leaves: make(map[string]int)}
		principal.Roles[role] = entry
	}

	entry.Leaves[LeafKey(subscriptionID, scope)] += count
}

// bubbleUp recomputes role and principal totals from the leaves.
func (a Aggregate) bubbleUp() {
	for _, principal := range a {
		principal.Total = 0
		for _, role := range principal.Roles {
			role.Total = 0
			for _, count := range role.Leaves {
				role.Total += count
			}
			principal.Total += role.Total
		}
	}
}

// AggregateInput carries the per-subscription snapshots the aggregation
// fuses. Map entries may be absent for any subscription: a missing direct or
// group partition contributes nothing, a missing inventory degrades scope
// resolution to single-resource counts.
type AggregateInput struct {
	Subscriptions   []types.Subscription
	DirectBySub     map[string]types.AssignmentsByPrincipal
	GroupBySub      map[string]types.AssignmentsByPrincipal
	MembershipBySub map[string]types.GroupMembershipBySubscription
	InventoryBySub  map[string]*types.ResourceInventory
}

// BuildAggregate fuses direct user assignments and expanded group
// assignments into a count-annotated aggregate. Group assignments whose
// expansion is missing are skipped entirely; service-principal assignments
// are never part of the input partitions. Processing order across
// subscriptions does not affect the result since every operation is a
// commutative sum.
func BuildAggregate(in AggregateInput) Aggregate {
	combined := make(Aggregate)

	for _, sub := range in.Subscriptions {
		if sub.ID == "" {
			continue
		}

		lookup := NewResourceLookup(in.InventoryBySub[sub.ID])

		for _, assignment := range in.DirectBySub[sub.ID] {
			count := ResourceCountForScope(assignment.Scope, sub.ID, lookup)
			combined.Add(assignment.PrincipalID, assignment.RoleDefinitionName, sub.ID, assignment.Scope, count)
		}

		membership, haveMembership := in.MembershipBySub[sub.ID]
		if !haveMembership {
			continue
		}

		for groupID, assignment := range in.GroupBySub[sub.ID] {
			record, expanded := membership[groupID]
			if !expanded {
				// No partial credit for groups the expansion phase missed.
				continue
			}

			count := ResourceCountForScope(assignment.Scope, sub.ID, lookup)
			for _, userID := range record.Members.Users {
				combined.Add(userID, assignment.RoleDefinitionName, sub.ID, assignment.Scope, count)
			}
		}
	}

	combined.bubbleUp()
	return combined
}

// Subtree returns the principal's entry, or nil when the principal holds no
// aggregated assignments.
func (a Aggregate) Subtree(principalID string) *PrincipalEntry {
	return a[principalID]
}

// PrincipalIDs lists every principal in the aggregate.
func (a Aggregate) PrincipalIDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	return ids
}

// wireRoles renders the principal's subtree in count-annotated form:
// "[roleTotal]role" -> "[leafCount]subscriptionID" -> "scope".
func (p *PrincipalEntry) wireRoles() map[string]map[string]string {
	roles := make(map[string]map[string]string, len(p.Roles))
	for role, entry := range p.Roles {
		leaves := make(map[string]string, len(entry.Leaves))
		for leaf, count := range entry.Leaves {
			subID, scope := SplitLeafKey(leaf)
			leaves[EncodeCountKey(count, subID)] = scope
		}
		roles[EncodeCountKey(entry.Total, role)] = leaves
	}
	return roles
}

// MarshalJSON renders the role -> leaf subtree under a principal. The
// principal's own total is carried by the enclosing key, not by the subtree.
func (p PrincipalEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.wireRoles())
}

// UnmarshalJSON parses a principal subtree. The principal total is
// reconstructed as the sum of the serialized role totals.
func (p *PrincipalEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse principal subtree: %w", err)
	}

	p.Total = 0
	p.Roles = make(map[string]*RoleEntry, len(raw))
	for roleKey, rawLeaves := range raw {
		roleTotal, role := SplitCountKey(roleKey)
		entry := &RoleEntry{
			Total:  roleTotal,
			Leaves: make(map[string]int, len(rawLeaves)),
		}
		for leafKey, scope := range rawLeaves {
			count, subID := SplitCountKey(leafKey)
			entry.Leaves[LeafKey(subID, scope)] = count
		}
		p.Roles[role] = entry
		p.Total += roleTotal
	}
	return nil
}

// MarshalJSON renders the count-annotated wire form: every key at every
// level carries its subtree sum as a bracketed prefix, leaves become
// "[count]subscriptionID": "scope". encoding/json sorts map keys, which
// gives the deterministic ordering the output snapshots require.
func (a Aggregate) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]map[string]string, len(a))
	for principalID, principal := range a {
		out[EncodeCountKey(principal.Total, principalID)] = principal.wireRoles()
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses the count-annotated wire form back into the numeric
// model. Counts are taken from the bracketed prefixes as-is; they are
// derived aggregates and are not independently recomputed here.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string]map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse aggregate tree: %w", err)
	}

	result := make(Aggregate, len(raw))
	for principalKey, rawRoles := range raw {
		principalTotal, principalID := SplitCountKey(principalKey)
		principal := &PrincipalEntry{
			Total: principalTotal,
			Roles: make(map[string]*RoleEntry, len(rawRoles)),
		}

		for roleKey, rawLeaves := range rawRoles {
			roleTotal, role := SplitCountKey(roleKey)
			entry := &RoleEntry{
				Total:  roleTotal,
				Leaves: make(map[string]int, len(rawLeaves)),
			}

			for leafKey, scope := range rawLeaves {
				count, subID := SplitCountKey(leafKey)
				entry.Leaves[LeafKey(subID, scope)] = count
			}

			principal.Roles[role] = entry
		}

		result[principalID] = principal
	}

	*a = result
	return nil
}
