package rbac

import (
	"sort"
	"strings"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// MatrixRow is one flattened (principal, role, scope) assignment for tabular
// or visual consumption. PrincipalFrequency is the number of rows sharing
// this row's role label across the entire dataset. ResourceCount and
// ResourcePath are only set by the resource-expanding variant.
type MatrixRow struct {
	PrincipalFrequency int    `json:"principalFrequency,omitempty"`
	Role               string `json:"role"`
	Name               string `json:"name"`
	DisplayName        string `json:"displayName"`
	JobTitle           string `json:"jobTitle"`
	PrincipalID        string `json:"principalId"`
	Scope              string `json:"scope"`
	ResourceCount      int    `json:"resourceCount,omitempty"`
	ResourcePath       string `json:"resourcePath,omitempty"`
}

// FlattenRoleMatrix flattens the joined identities into one row per leaf.
// Two passes, deliberately: the first walks every leaf and accumulates the
// global role occurrence counts, the second re-walks the same traversal and
// stamps each row's frequency from that table. Frequency must reflect the
// whole dataset, so it cannot be computed while emitting.
func FlattenRoleMatrix(joined Identities) []MatrixRow {
	rows := make([]MatrixRow, 0)
	roleCounts := make(map[string]int)

	walkLeaves(joined, func(name, principalID string, record IdentityRecord, role, leafKey string, _ int) {
		_, scope := SplitLeafKey(leafKey)
		roleCounts[role]++
		rows = append(rows, MatrixRow{
			Role:        role,
			Name:        name,
			DisplayName: record.DisplayName,
			JobTitle:    record.JobTitle,
			PrincipalID: principalID,
			Scope:       scope,
		})
	})

	for i := range rows {
		rows[i].PrincipalFrequency = roleCounts[rows[i].Role]
	}

	return rows
}

// FlattenUserMatrix flattens the joined identities into resource-level rows,
// consulting the resource inventories again at flatten time. Subscription-
// scoped leaves expand into one row per resource group with a nonzero count;
// resource-group leaves emit one row when nonzero; anything else is a single
// resource. Rows that resolve to zero resources are dropped: an output
// filter, not an error.
func FlattenUserMatrix(joined Identities, inventoryBySub map[string]*types.ResourceInventory) []MatrixRow {
	subMap := make(map[string]*types.ResourceInventory, len(inventoryBySub))
	for subID, inv := range inventoryBySub {
		if inv != nil {
			subMap[strings.ToLower(subID)] = inv
		}
	}

	rows := make([]MatrixRow, 0)

	walkLeaves(joined, func(name, principalID string, record IdentityRecord, role, leafKey string, _ int) {
		_, scope := SplitLeafKey(leafKey)
		scope = strings.TrimSpace(scope)

		base := MatrixRow{
			Role:        role,
			Name:        name,
			DisplayName: record.DisplayName,
			JobTitle:    record.JobTitle,
			PrincipalID: principalID,
			Scope:       scope,
		}

		inv := subMap[subscriptionFromScope(scope)]
		if inv == nil {
			// Unknown subscription: treat the scope as a single resource.
			base.ResourceCount = 1
			base.ResourcePath = scope
			rows = append(rows, base)
			return
		}

		if IsSubscriptionScope(scope, inv.SubscriptionID) {
			for _, rg := range inv.ResourceGroups {
				if rg.ResourceCount == 0 {
					continue
				}
				row := base
				row.ResourceCount = rg.ResourceCount
				row.ResourcePath = rg.ID
				rows = append(rows, row)
			}
			return
		}

		for _, rg := range inv.ResourceGroups {
			if strings.EqualFold(rg.ID, scope) {
				if rg.ResourceCount > 0 {
					row := base
					row.ResourceCount = rg.ResourceCount
					row.ResourcePath = rg.ID
					rows = append(rows, row)
				}
				return
			}
		}

		base.ResourceCount = 1
		base.ResourcePath = scope
		rows = append(rows, base)
	})

	return rows
}

// subscriptionFromScope extracts the lowercased subscription ID from a scope
// path of the form "/subscriptions/<id>/...", or "" when the scope is not
// subscription-rooted.
func subscriptionFromScope(scope string) string {
	parts := strings.Split(strings.ToLower(scope), "/")
	if len(parts) > 2 && parts[1] == "subscriptions" {
		return parts[2]
	}
	return ""
}

// walkLeaves visits every (name, principal, role, leaf) combination in a
// deterministic order: names, principal IDs, roles, and leaf keys each
// sorted lexicographically. Both flatten passes must traverse identically
// for the frequency table to line up with the emitted rows.
func walkLeaves(joined Identities, visit func(name, principalID string, record IdentityRecord, role, leafKey string, count int)) {
	names := make([]string, 0, len(joined))
	for name := range joined {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		principals := joined[name]
		principalIDs := make([]string, 0, len(principals))
		for id := range principals {
			principalIDs = append(principalIDs, id)
		}
		sort.Strings(principalIDs)

		for _, principalID := range principalIDs {
			record := principals[principalID]
			if record.RBAC == nil {
				continue
			}

			roles := make([]string, 0, len(record.RBAC.Roles))
			for role := range record.RBAC.Roles {
				roles = append(roles, role)
			}
			sort.Strings(roles)

			for _, role := range roles {
				entry := record.RBAC.Roles[role]
				leafKeys := make([]string, 0, len(entry.Leaves))
				for leaf := range entry.Leaves {
					leafKeys = append(leafKeys, leaf)
				}
				sort.Strings(leafKeys)

				for _, leaf := range leafKeys {
					visit(name, principalID, record, role, leaf, entry.Leaves[leaf])
				}
			}
		}
	}
}
