package rbac

import (
	"sort"
	"strings"
)

// RoleSlice is one role's share of a user's bubble.
type RoleSlice struct {
	RoleName string `json:"roleName"`
	Count    int    `json:"count"`
}

// UserBubble is one chart bubble: a person with all their directory
// identities merged, sized by the summed resource counts of every role they
// hold.
type UserBubble struct {
	UserName           string      `json:"userName"`
	JobTitle           string      `json:"jobTitle"`
	TotalResourceCount int         `json:"totalResourceCount"`
	Roles              []RoleSlice `json:"roles"`
}

// RoleBubble is one chart bubble for a role, sized by how many distinct
// leaf assignments reference it across all users.
type RoleBubble struct {
	RoleName        string   `json:"roleName"`
	AssignmentCount int      `json:"assignmentCount"`
	Scopes          []string `json:"scopes"`
}

// BuildUserBubbles merges each person's principal subtrees into one bubble.
// Sibling principal IDs under the same name sum role for role; the job title
// is the first nonempty one encountered in sorted principal order.
func BuildUserBubbles(joined Identities) []UserBubble {
	names := make([]string, 0, len(joined))
	for name := range joined {
		names = append(names, name)
	}
	sort.Strings(names)

	bubbles := make([]UserBubble, 0, len(names))
	for _, name := range names {
		principals := joined[name]
		principalIDs := make([]string, 0, len(principals))
		for id := range principals {
			principalIDs = append(principalIDs, id)
		}
		sort.Strings(principalIDs)

		roleCounts := make(map[string]int)
		jobTitle := ""
		for _, principalID := range principalIDs {
			record := principals[principalID]
			if jobTitle == "" {
				jobTitle = strings.TrimSpace(record.JobTitle)
			}
			if record.RBAC == nil {
				continue
			}
			for role, entry := range record.RBAC.Roles {
				roleCounts[strings.TrimSpace(role)] += entry.Total
			}
		}

		total := 0
		roles := make([]RoleSlice, 0, len(roleCounts))
		for role, count := range roleCounts {
			total += count
			roles = append(roles, RoleSlice{RoleName: role, Count: count})
		}
		sort.Slice(roles, func(i, j int) bool {
			if roles[i].Count != roles[j].Count {
				return roles[i].Count > roles[j].Count
			}
			return roles[i].RoleName < roles[j].RoleName
		})

		bubbles = append(bubbles, UserBubble{
			UserName:           strings.ReplaceAll(strings.TrimSpace(name), "_", ""),
			JobTitle:           jobTitle,
			TotalResourceCount: total,
			Roles:              roles,
		})
	}
	return bubbles
}

// FilterAboveAverage keeps the bubbles whose total strictly exceeds the mean
// total, returning the mean alongside for the chart heading.
func FilterAboveAverage(bubbles []UserBubble) ([]UserBubble, float64) {
	if len(bubbles) == 0 {
		return nil, 0
	}

	sum := 0
	for _, b := range bubbles {
		sum += b.TotalResourceCount
	}
	avg := float64(sum) / float64(len(bubbles))

	filtered := make([]UserBubble, 0, len(bubbles))
	for _, b := range bubbles {
		if float64(b.TotalResourceCount) > avg {
			filtered = append(filtered, b)
		}
	}
	return filtered, avg
}

// BuildRoleBubbles collects every role across every principal. Each leaf
// under a role counts as one assignment; the scope strings are deduplicated
// and sorted for the tooltip listing.
func BuildRoleBubbles(joined Identities) []RoleBubble {
	counts := make(map[string]int)
	scopes := make(map[string]map[string]struct{})

	walkLeaves(joined, func(_, _ string, _ IdentityRecord, role, leafKey string, _ int) {
		role = strings.TrimSpace(role)
		counts[role]++
		if scopes[role] == nil {
			scopes[role] = make(map[string]struct{})
		}
		_, scope := SplitLeafKey(leafKey)
		scopes[role][scope] = struct{}{}
	})

	roleNames := make([]string, 0, len(counts))
	for role := range counts {
		roleNames = append(roleNames, role)
	}
	sort.Strings(roleNames)

	bubbles := make([]RoleBubble, 0, len(roleNames))
	for _, role := range roleNames {
		scopeList := make([]string, 0, len(scopes[role]))
		for scope := range scopes[role] {
			scopeList = append(scopeList, scope)
		}
		sort.Strings(scopeList)
		bubbles = append(bubbles, RoleBubble{
			RoleName:        role,
			AssignmentCount: counts[role],
			Scopes:          scopeList,
		})
	}
	return bubbles
}
