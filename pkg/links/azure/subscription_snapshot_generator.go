package azure

import (
	"fmt"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// SubscriptionSnapshotGeneratorLink replays the subscriptions snapshot from
// an earlier run into the chain. Every phase after the first starts here, so
// the pipeline can resume without touching the control plane again.
type SubscriptionSnapshotGeneratorLink struct {
	*chain.Base
}

func NewSubscriptionSnapshotGeneratorLink(configs ...cfg.Config) chain.Link {
	l := &SubscriptionSnapshotGeneratorLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *SubscriptionSnapshotGeneratorLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *SubscriptionSnapshotGeneratorLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	store := rbac.NewStore(outputDir)
	subs, err := store.LoadSubscriptions()
	if err != nil {
		return fmt.Errorf("failed to load subscriptions snapshot: %w", err)
	}

	l.Logger.Info("Loaded subscriptions snapshot", "count", len(subs))

	for _, sub := range subs {
		if sub.ID == "" {
			continue
		}
		if err := l.Send(sub); err != nil {
			return err
		}
	}
	return nil
}
