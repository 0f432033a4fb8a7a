package recon

import (
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/registry"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/azure"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
)

func init() {
	registry.Register("azure", "recon", AzureGroupMembers.Metadata().Properties()["id"].(string), *AzureGroupMembers)
}

var AzureGroupMembers = chain.NewModule(
	cfg.NewMetadata(
		"Group Members",
		"Expand the transitive membership of every group that holds a role assignment",
	).WithProperties(map[string]any{
		"id":          "group-members",
		"platform":    "azure",
		"opsec_level": "stealth",
		"authors":     []string{"PrimitiveContext"},
		"references": []string{
			"https://learn.microsoft.com/en-us/graph/api/group-list-members",
		},
	}),
).WithLinks(
	azure.NewSubscriptionSnapshotGeneratorLink,
	azure.NewAzureGroupMembershipCollectorLink,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
