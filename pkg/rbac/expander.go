package rbac

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// Member is one directory object from a group member page. Type carries the
// raw @odata.type discriminator (e.g. "#microsoft.graph.user").
type Member struct {
	ID   string
	Type string
}

// MemberPage is one page of a group's member list. NextLink is the cursor
// for the following page; empty means the listing is exhausted.
type MemberPage struct {
	Members  []Member
	NextLink string
}

// DirectorySource is the remote directory the expander reads from.
type DirectorySource interface {
	// GroupDisplayName resolves a group's display name.
	GroupDisplayName(ctx context.Context, groupID string) (string, error)
	// GroupMemberPage fetches one page of a group's direct members. An empty
	// nextLink requests the first page.
	GroupMemberPage(ctx context.Context, groupID, nextLink string) (*MemberPage, error)
}

// MemberSets accumulates a group's transitive membership as disjoint ID sets.
type MemberSets struct {
	Users  map[string]struct{}
	Groups map[string]struct{}
	Others map[string]struct{}
}

func NewMemberSets() MemberSets {
	return MemberSets{
		Users:  make(map[string]struct{}),
		Groups: make(map[string]struct{}),
		Others: make(map[string]struct{}),
	}
}

// Merge unions other into s. Duplicates collapse.
func (s MemberSets) Merge(other MemberSets) {
	for id := range other.Users {
		s.Users[id] = struct{}{}
	}
	for id := range other.Groups {
		s.Groups[id] = struct{}{}
	}
	for id := range other.Others {
		s.Others[id] = struct{}{}
	}
}

// Members renders the sets as sorted slices for the snapshot shape.
func (s MemberSets) Members() types.GroupMembers {
	return types.GroupMembers{
		Users:  sortedIDs(s.Users),
		Groups: sortedIDs(s.Groups),
		Others: sortedIDs(s.Others),
	}
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Expander resolves nested directory group membership into flattened user
// sets. Fetch failures for a single group degrade to the partial aggregate
// accumulated so far and are written to the diagnostic logger, never raised.
type Expander struct {
	source DirectorySource
	log    *slog.Logger
}

// NewExpander builds an expander over the given source. diag receives the
// side-channel warnings; nil discards them.
func NewExpander(source DirectorySource, diag *slog.Logger) *Expander {
	if diag == nil {
		diag = slog.New(slog.DiscardHandler)
	}
	return &Expander{source: source, log: diag}
}

// Expand resolves groupID's transitive membership. The visited set is shared
// across the whole recursion so that membership cycles are cut: a revisited
// group contributes nothing beyond the cycle point, which undercounts cyclic
// groups by design rather than erroring.
func (e *Expander) Expand(ctx context.Context, groupID string, visited map[string]struct{}) MemberSets {
	aggregated := NewMemberSets()

	if _, seen := visited[groupID]; seen {
		return aggregated
	}
	visited[groupID] = struct{}{}

	nextLink := ""
	for {
		page, err := e.source.GroupMemberPage(ctx, groupID, nextLink)
		if err != nil {
			e.log.Warn("could not fetch group members", "group", groupID, "error", err)
			return aggregated
		}

		for _, m := range page.Members {
			switch classifyMember(m.Type) {
			case memberUser:
				aggregated.Users[m.ID] = struct{}{}
			case memberGroup:
				// A revisited group is a cycle edge; dropping it keeps a
				// group from ever listing itself as its own member.
				if _, seen := visited[m.ID]; !seen {
					aggregated.Groups[m.ID] = struct{}{}
				}
				nested := e.Expand(ctx, m.ID, visited)
				aggregated.Merge(nested)
			default:
				aggregated.Others[m.ID] = struct{}{}
			}
		}

		nextLink = page.NextLink
		if nextLink == "" {
			break
		}
	}

	return aggregated
}

// ExpandRecord expands one group and packages the result with its display
// name. A failed name lookup leaves the name empty and is logged, matching
// the degrade-don't-abort policy for single-group failures.
func (e *Expander) ExpandRecord(ctx context.Context, groupID string) types.GroupMembershipRecord {
	displayName, err := e.source.GroupDisplayName(ctx, groupID)
	if err != nil {
		e.log.Warn("failed to retrieve group", "group", groupID, "error", err)
	}

	visited := make(map[string]struct{})
	sets := e.Expand(ctx, groupID, visited)

	return types.GroupMembershipRecord{
		DisplayName: displayName,
		Members:     sets.Members(),
	}
}

// ExpandGroups expands each top-level group, at most workers at a time. Each
// expansion owns a fresh visited set, so only the recursive calls within one
// expansion stay sequential.
func (e *Expander) ExpandGroups(ctx context.Context, groupIDs []string, workers int) types.GroupMembershipBySubscription {
	if workers < 1 {
		workers = 1
	}

	result := make(types.GroupMembershipBySubscription, len(groupIDs))
	sem := semaphore.NewWeighted(int64(workers))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, groupID := range groupIDs {
		if err := sem.Acquire(ctx, 1); err != nil {
			e.log.Warn("expansion cancelled", "group", groupID, "error", err)
			break
		}

		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			defer sem.Release(1)

			record := e.ExpandRecord(ctx, id)

			mu.Lock()
			result[id] = record
			mu.Unlock()
		}(groupID)
	}

	wg.Wait()
	return result
}

type memberKind int

const (
	memberOther memberKind = iota
	memberUser
	memberGroup
)

func classifyMember(odataType string) memberKind {
	t := strings.ToLower(odataType)
	switch {
	case strings.Contains(t, "user"):
		return memberUser
	case strings.Contains(t, "group"):
		return memberGroup
	default:
		return memberOther
	}
}
