package azure

import (
	"fmt"
	"sort"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/helpers"
	"github.com/PrimitiveContext/AzureEnumRBAC/internal/logs"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// AzureGroupMembershipCollectorLink expands the transitive membership of
// every group that holds an assignment in a subscription. The group IDs come
// from the group partition written by the assignments phase; expansions run
// in parallel up to the worker budget, and per-group fetch failures go to a
// diagnostic log file instead of aborting the phase.
type AzureGroupMembershipCollectorLink struct {
	*chain.Base
}

func NewAzureGroupMembershipCollectorLink(configs ...cfg.Config) chain.Link {
	l := &AzureGroupMembershipCollectorLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureGroupMembershipCollectorLink) Params() []cfg.Param {
	return []cfg.Param{
		options.AzureWorkerCount(),
		options.OutputDir(),
	}
}

func (l *AzureGroupMembershipCollectorLink) Process(input any) error {
	sub, ok := input.(types.Subscription)
	if !ok {
		return fmt.Errorf("expected types.Subscription input, got %T", input)
	}

	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	workers, _ := cfg.As[int](l.Arg("workers"))

	store := rbac.NewStore(outputDir)

	groupAssignments, err := store.LoadAssignments(sub.ID, "Group")
	if err != nil {
		return err
	}
	if len(groupAssignments) == 0 {
		l.Logger.Info("No group assignments to expand", "subscription", sub.ID)
		return store.SaveAt(store.GroupMembersPath(sub.ID), types.GroupMembershipBySubscription{})
	}

	groupIDs := make([]string, 0, len(groupAssignments))
	for groupID := range groupAssignments {
		groupIDs = append(groupIDs, groupID)
	}
	sort.Strings(groupIDs)

	graphClient, err := helpers.NewGraphClient()
	if err != nil {
		return err
	}

	diag, closeDiag, err := logs.FileLogger(store.GroupMembersErrorLog())
	if err != nil {
		return fmt.Errorf("failed to open expansion error log: %w", err)
	}
	defer closeDiag()

	expander := rbac.NewExpander(NewGraphDirectorySource(graphClient), diag)
	membership := expander.ExpandGroups(l.Context(), groupIDs, workers)

	if err := store.SaveAt(store.GroupMembersPath(sub.ID), membership); err != nil {
		return err
	}

	l.Logger.Info("Expanded group membership",
		"subscription", sub.ID,
		"groups", len(groupIDs))
	return l.Send(membership)
}
