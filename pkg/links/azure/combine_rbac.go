package azure

import (
	"fmt"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/outputters"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// AzureCombineRBACLink fuses the per-subscription snapshots into the
// count-annotated aggregate: direct user assignments plus expanded group
// assignments, weighted by the resource counts their scopes resolve to.
type AzureCombineRBACLink struct {
	*chain.Base
}

func NewAzureCombineRBACLink(configs ...cfg.Config) chain.Link {
	l := &AzureCombineRBACLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureCombineRBACLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureCombineRBACLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	store := rbac.NewStore(outputDir)

	subs, err := store.LoadSubscriptions()
	if err != nil {
		return fmt.Errorf("failed to load subscriptions snapshot: %w", err)
	}

	in := rbac.AggregateInput{
		Subscriptions:   subs,
		DirectBySub:     make(map[string]types.AssignmentsByPrincipal),
		GroupBySub:      make(map[string]types.AssignmentsByPrincipal),
		MembershipBySub: make(map[string]types.GroupMembershipBySubscription),
	}

	in.InventoryBySub, err = store.LoadInventories(subs)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		if sub.ID == "" {
			continue
		}

		direct, err := store.LoadAssignments(sub.ID, "User")
		if err != nil {
			return err
		}
		if direct != nil {
			in.DirectBySub[sub.ID] = direct
		}

		group, err := store.LoadAssignments(sub.ID, "Group")
		if err != nil {
			return err
		}
		if group != nil {
			in.GroupBySub[sub.ID] = group
		}

		membership, err := store.LoadGroupMembers(sub.ID)
		if err != nil {
			return err
		}
		if membership != nil {
			in.MembershipBySub[sub.ID] = membership
		}
	}

	aggregate := rbac.BuildAggregate(in)

	l.Logger.Info("Combined RBAC assignments",
		"subscriptions", len(subs),
		"principals", len(aggregate))

	if err := l.Send(aggregate); err != nil {
		return err
	}
	return l.Send(outputters.NewNamedOutputData(aggregate, rbac.CombinedRBACFile))
}
