package rbac

import (
	"strings"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// ResourceLookup is the per-subscription resource-count index consulted when
// resolving assignment scopes. A nil lookup means no inventory snapshot was
// available for the subscription.
type ResourceLookup struct {
	// Total is the subscription-wide resource count.
	Total int
	// groupCounts maps lowercased resource group IDs to their resource count.
	groupCounts map[string]int
}

// NewResourceLookup builds a lookup from a resource inventory snapshot.
func NewResourceLookup(inv *types.ResourceInventory) *ResourceLookup {
	if inv == nil {
		return nil
	}

	lookup := &ResourceLookup{
		Total:       inv.ResourceCount,
		groupCounts: make(map[string]int, len(inv.ResourceGroups)),
	}
	for _, rg := range inv.ResourceGroups {
		if rg.ID != "" {
			lookup.groupCounts[strings.ToLower(rg.ID)] = rg.ResourceCount
		}
	}
	return lookup
}

// ResourceGroupCount returns the count for a resource-group scope, matching
// case-insensitively. The second return reports whether the scope named a
// known resource group.
func (l *ResourceLookup) ResourceGroupCount(scope string) (int, bool) {
	if l == nil {
		return 0, false
	}
	count, ok := l.groupCounts[strings.ToLower(strings.TrimSpace(scope))]
	return count, ok
}

// IsSubscriptionScope reports whether scope addresses the whole subscription:
// either "/" or "/subscriptions/<subID>", compared case-insensitively.
func IsSubscriptionScope(scope, subscriptionID string) bool {
	s := strings.TrimSpace(scope)
	if s == "/" {
		return true
	}
	return strings.EqualFold(s, "/subscriptions/"+subscriptionID)
}

// ResourceCountForScope resolves an assignment scope to a resource count.
// Subscription-wide scopes resolve to the inventory total, resource-group
// scopes to that group's count, and anything else is treated as a single
// resource. Without an inventory the count degrades to 1. Total function:
// every input yields a deterministic non-negative integer.
func ResourceCountForScope(scope, subscriptionID string, lookup *ResourceLookup) int {
	if lookup == nil {
		return 1
	}

	if IsSubscriptionScope(scope, subscriptionID) {
		return lookup.Total
	}

	if count, ok := lookup.ResourceGroupCount(scope); ok {
		return count
	}

	return 1
}
