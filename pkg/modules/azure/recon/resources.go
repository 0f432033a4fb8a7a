package recon

import (
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/registry"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/azure"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
)

func init() {
	registry.Register("azure", "recon", AzureResources.Metadata().Properties()["id"].(string), *AzureResources)
}

var AzureResources = chain.NewModule(
	cfg.NewMetadata(
		"Resources",
		"Inventory every resource group and resource per subscription",
	).WithProperties(map[string]any{
		"id":          "resources",
		"platform":    "azure",
		"opsec_level": "stealth",
		"authors":     []string{"PrimitiveContext"},
		"references": []string{
			"https://learn.microsoft.com/en-us/rest/api/resources/resources/list-by-resource-group",
		},
	}),
).WithLinks(
	azure.NewSubscriptionSnapshotGeneratorLink,
	azure.NewAzureResourceInventoryCollectorLink,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
