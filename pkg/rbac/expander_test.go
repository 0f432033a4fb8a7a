package rbac

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory serves group membership from an in-memory adjacency map,
// paging pageSize members at a time. ExpandGroups calls it from concurrent
// goroutines, so the call counter is atomic.
type fakeDirectory struct {
	names    map[string]string
	members  map[string][]Member
	failAt   map[string]error
	pageSize int
	calls    atomic.Int64
}

func (f *fakeDirectory) GroupDisplayName(_ context.Context, groupID string) (string, error) {
	name, ok := f.names[groupID]
	if !ok {
		return "", fmt.Errorf("group %s not found", groupID)
	}
	return name, nil
}

func (f *fakeDirectory) GroupMemberPage(_ context.Context, groupID, nextLink string) (*MemberPage, error) {
	f.calls.Add(1)
	if err := f.failAt[groupID]; err != nil {
		return nil, err
	}

	offset := 0
	if nextLink != "" {
		fmt.Sscanf(nextLink, "cursor:%d", &offset)
	}

	all := f.members[groupID]
	size := f.pageSize
	if size <= 0 {
		size = len(all)
	}

	end := offset + size
	link := ""
	if end < len(all) {
		link = fmt.Sprintf("cursor:%d", end)
	} else {
		end = len(all)
	}

	return &MemberPage{Members: all[offset:end], NextLink: link}, nil
}

func user(id string) Member  { return Member{ID: id, Type: "#microsoft.graph.user"} }
func group(id string) Member { return Member{ID: id, Type: "#microsoft.graph.group"} }
func device(id string) Member {
	return Member{ID: id, Type: "#microsoft.graph.device"}
}

func TestExpandNestedGroups(t *testing.T) {
	dir := &fakeDirectory{
		names: map[string]string{"A": "Group A"},
		members: map[string][]Member{
			"A": {user("u1"), group("B"), device("d1")},
			"B": {user("u2"), user("u3")},
		},
	}

	e := NewExpander(dir, nil)
	record := e.ExpandRecord(context.Background(), "A")

	assert.Equal(t, "Group A", record.DisplayName)
	assert.Equal(t, []string{"u1", "u2", "u3"}, record.Members.Users)
	assert.Equal(t, []string{"B"}, record.Members.Groups)
	assert.Equal(t, []string{"d1"}, record.Members.Others)
}

func TestExpandCycleSafety(t *testing.T) {
	// A -> B -> A: the cycle edge must be dropped, and the result must equal
	// the expansion of the same graph without that edge.
	cyclic := &fakeDirectory{
		members: map[string][]Member{
			"A": {user("u1"), group("B")},
			"B": {user("u2"), group("A")},
		},
	}
	acyclic := &fakeDirectory{
		members: map[string][]Member{
			"A": {user("u1"), group("B")},
			"B": {user("u2")},
		},
	}

	withCycle := NewExpander(cyclic, nil).Expand(context.Background(), "A", map[string]struct{}{})
	withoutCycle := NewExpander(acyclic, nil).Expand(context.Background(), "A", map[string]struct{}{})

	assert.Equal(t, withoutCycle.Users, withCycle.Users)
	assert.Equal(t, withoutCycle.Groups, withCycle.Groups)
	assert.NotContains(t, withCycle.Groups, "A")
}

func TestExpandSelfReference(t *testing.T) {
	dir := &fakeDirectory{
		members: map[string][]Member{
			"A": {user("u1"), group("A")},
		},
	}

	sets := NewExpander(dir, nil).Expand(context.Background(), "A", map[string]struct{}{})
	members := sets.Members()

	assert.Equal(t, []string{"u1"}, members.Users)
	// The self edge is a cycle of length one and is dropped entirely.
	assert.Empty(t, members.Groups)
}

func TestExpandPaginatesAllPages(t *testing.T) {
	dir := &fakeDirectory{
		pageSize: 2,
		members: map[string][]Member{
			"A": {user("u1"), user("u2"), user("u3"), user("u4"), user("u5")},
		},
	}

	sets := NewExpander(dir, nil).Expand(context.Background(), "A", map[string]struct{}{})
	assert.Len(t, sets.Users, 5)
	assert.GreaterOrEqual(t, dir.calls.Load(), int64(3), "five members at page size two require three pages")
}

func TestExpandPartialOnFetchFailure(t *testing.T) {
	dir := &fakeDirectory{
		members: map[string][]Member{
			"A": {user("u1"), group("B"), group("C")},
			"C": {user("u3")},
		},
		failAt: map[string]error{"B": fmt.Errorf("throttled")},
	}

	sets := NewExpander(dir, nil).Expand(context.Background(), "A", map[string]struct{}{})
	members := sets.Members()

	// B's failure degrades to its partial (empty) result; the sibling C
	// still expands.
	assert.Equal(t, []string{"u1", "u3"}, members.Users)
	assert.ElementsMatch(t, []string{"B", "C"}, members.Groups)
}

func TestExpandGroups(t *testing.T) {
	dir := &fakeDirectory{
		names: map[string]string{"A": "Group A", "B": "Group B"},
		members: map[string][]Member{
			"A": {user("u1")},
			"B": {user("u2"), group("A")},
		},
	}

	result := NewExpander(dir, nil).ExpandGroups(context.Background(), []string{"A", "B"}, 4)
	require.Len(t, result, 2)

	assert.Equal(t, []string{"u1"}, result["A"].Members.Users)
	assert.Equal(t, []string{"u1", "u2"}, result["B"].Members.Users)
	assert.Equal(t, "Group B", result["B"].DisplayName)
}
