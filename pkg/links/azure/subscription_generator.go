package azure

import (
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armsubscriptions"
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/helpers"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/outputters"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// AzureSubscriptionGeneratorLink enumerates the subscriptions the caller can
// see and emits each one downstream, plus the full list as the
// subscriptions snapshot. A subscription filter narrows the set; "all" (the
// default) keeps everything.
type AzureSubscriptionGeneratorLink struct {
	*chain.Base
}

func NewAzureSubscriptionGeneratorLink(configs ...cfg.Config) chain.Link {
	l := &AzureSubscriptionGeneratorLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureSubscriptionGeneratorLink) Params() []cfg.Param {
	return []cfg.Param{
		options.AzureSubscription(),
		options.OutputDir(),
	}
}

func (l *AzureSubscriptionGeneratorLink) Process(input any) error {
	filter, _ := cfg.As[[]string](l.Arg("subscription"))

	l.Logger.Info("Listing Azure subscriptions", "filter", filter)

	cred, err := helpers.NewAzureCredential()
	if err != nil {
		l.Logger.Error("Failed to get Azure credentials", "error", err)
		return err
	}

	subClient, err := armsubscriptions.NewClient(cred, nil)
	if err != nil {
		l.Logger.Error("Failed to create subscription client", "error", err)
		return err
	}

	var subs []types.Subscription
	pager := subClient.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(l.Context())
		if err != nil {
			l.Logger.Error("Failed to list subscriptions", "error", err)
			return err
		}

		for _, sub := range page.Value {
			if sub == nil || sub.SubscriptionID == nil {
				continue
			}
			if !matchesSubscriptionFilter(*sub.SubscriptionID, filter) {
				continue
			}

			record := types.Subscription{ID: *sub.SubscriptionID}
			if sub.DisplayName != nil {
				record.Name = *sub.DisplayName
			}
			if sub.State != nil {
				record.State = string(*sub.State)
			}
			subs = append(subs, record)
		}
	}

	l.Logger.Info("Found subscriptions", "count", len(subs))

	for _, sub := range subs {
		if err := l.Send(sub); err != nil {
			return err
		}
	}

	return l.Send(outputters.NewNamedOutputData(subs, rbac.SubscriptionsFile))
}

// matchesSubscriptionFilter reports whether a subscription ID passes the
// --subscription filter. An empty filter or a lone "all" admits everything.
func matchesSubscriptionFilter(subscriptionID string, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	if len(filter) == 1 && strings.EqualFold(filter[0], "all") {
		return true
	}
	for _, id := range filter {
		if strings.EqualFold(id, subscriptionID) {
			return true
		}
	}
	return false
}
