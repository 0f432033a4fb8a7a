package recon

import (
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/registry"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/azure"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/outputters"
)

func init() {
	registry.Register("azure", "recon", AzureSubscriptions.Metadata().Properties()["id"].(string), *AzureSubscriptions)
}

var AzureSubscriptions = chain.NewModule(
	cfg.NewMetadata(
		"Subscriptions",
		"Enumerate the subscriptions the current credential can access",
	).WithProperties(map[string]any{
		"id":          "subscriptions",
		"platform":    "azure",
		"opsec_level": "stealth",
		"authors":     []string{"PrimitiveContext"},
		"references": []string{
			"https://learn.microsoft.com/en-us/rest/api/resources/subscriptions/list",
		},
	}),
).WithLinks(
	azure.NewAzureSubscriptionGeneratorLink,
).WithOutputters(
	outputters.NewSnapshotJSONOutputter,
).WithInputParam(
	options.AzureSubscription(),
).WithAutoRun()
