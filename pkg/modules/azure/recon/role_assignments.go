package recon

import (
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/registry"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/azure"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
)

func init() {
	registry.Register("azure", "recon", AzureRoleAssignments.Metadata().Properties()["id"].(string), *AzureRoleAssignments)
}

var AzureRoleAssignments = chain.NewModule(
	cfg.NewMetadata(
		"Role Assignments",
		"Enumerate role assignments at every subscription scope and partition them by principal type",
	).WithProperties(map[string]any{
		"id":          "role-assignments",
		"platform":    "azure",
		"opsec_level": "stealth",
		"authors":     []string{"PrimitiveContext"},
		"references": []string{
			"https://learn.microsoft.com/en-us/azure/role-based-access-control/overview",
		},
	}),
).WithLinks(
	azure.NewSubscriptionSnapshotGeneratorLink,
	azure.NewAzureRoleAssignmentsCollectorLink,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
