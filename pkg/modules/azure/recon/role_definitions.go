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
	registry.Register("azure", "recon", AzureRoleDefinitions.Metadata().Properties()["id"].(string), *AzureRoleDefinitions)
}

var AzureRoleDefinitions = chain.NewModule(
	cfg.NewMetadata(
		"Role Definitions",
		"Enumerate built-in and custom role definitions across subscriptions",
	).WithProperties(map[string]any{
		"id":          "role-definitions",
		"platform":    "azure",
		"opsec_level": "stealth",
		"authors":     []string{"PrimitiveContext"},
		"references": []string{
			"https://learn.microsoft.com/en-us/azure/role-based-access-control/role-definitions-list",
		},
	}),
).WithLinks(
	azure.NewSubscriptionSnapshotGeneratorLink,
	azure.NewAzureRoleDefinitionsCollectorLink,
).WithOutputters(
	outputters.NewSnapshotJSONOutputter,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
