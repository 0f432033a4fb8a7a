package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/helpers"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// AzureResourceInventoryCollectorLink walks every resource group in a
// subscription and records the resource IDs it contains. One subscription's
// failure is logged and skipped so the rest of the tenant still gets
// inventoried.
type AzureResourceInventoryCollectorLink struct {
	*chain.Base
}

func NewAzureResourceInventoryCollectorLink(configs ...cfg.Config) chain.Link {
	l := &AzureResourceInventoryCollectorLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureResourceInventoryCollectorLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureResourceInventoryCollectorLink) Process(input any) error {
	sub, ok := input.(types.Subscription)
	if !ok {
		return fmt.Errorf("expected types.Subscription input, got %T", input)
	}

	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	store := rbac.NewStore(outputDir)

	inventory, err := l.collectInventory(sub)
	if err != nil {
		l.Logger.Error("Failed to inventory subscription", "subscription", sub.ID, "error", err)
		return nil
	}

	if err := store.SaveAt(store.ResourcesPath(sub.ID), inventory); err != nil {
		return err
	}

	l.Logger.Info("Inventoried subscription",
		"subscription", sub.ID,
		"resourceGroups", inventory.ResourceGroupCount,
		"resources", inventory.ResourceCount)
	return l.Send(inventory)
}

func (l *AzureResourceInventoryCollectorLink) collectInventory(sub types.Subscription) (*types.ResourceInventory, error) {
	cred, err := helpers.NewAzureCredential()
	if err != nil {
		return nil, err
	}

	rgClient, err := armresources.NewResourceGroupsClient(sub.ID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource groups client: %w", err)
	}
	resClient, err := armresources.NewClient(sub.ID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resources client: %w", err)
	}

	inventory := &types.ResourceInventory{
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
	}

	rgPager := rgClient.NewListPager(nil)
	for rgPager.More() {
		rgPage, err := rgPager.NextPage(l.Context())
		if err != nil {
			return nil, fmt.Errorf("failed to list resource groups: %w", err)
		}

		for _, rg := range rgPage.Value {
			if rg == nil || rg.Name == nil {
				continue
			}

			group := types.ResourceGroupInventory{
				ResourceGroupName: *rg.Name,
				Resources:         []string{},
			}
			if rg.ID != nil {
				group.ID = *rg.ID
			}
			if rg.Location != nil {
				group.Location = *rg.Location
			}
			if len(rg.Tags) > 0 {
				group.Tags = make(map[string]string, len(rg.Tags))
				for k, v := range rg.Tags {
					if v != nil {
						group.Tags[k] = *v
					}
				}
			}

			if err := l.listGroupResources(resClient, *rg.Name, &group); err != nil {
				// Keep the group with whatever was listed before the failure.
				l.Logger.Warn("Failed to list resources in group",
					"subscription", sub.ID, "resourceGroup", *rg.Name, "error", err)
			}

			inventory.ResourceGroups = append(inventory.ResourceGroups, group)
			inventory.ResourceCount += group.ResourceCount
		}
	}

	inventory.ResourceGroupCount = len(inventory.ResourceGroups)
	return inventory, nil
}

func (l *AzureResourceInventoryCollectorLink) listGroupResources(client *armresources.Client, rgName string, group *types.ResourceGroupInventory) error {
	pager := client.NewListByResourceGroupPager(rgName, nil)
	for pager.More() {
		page, err := pager.NextPage(l.Context())
		if err != nil {
			return err
		}
		for _, res := range page.Value {
			if res == nil || res.ID == nil {
				continue
			}
			group.Resources = append(group.Resources, *res.ID)
			group.ResourceCount++
		}
	}
	return nil
}
