package recon

import (
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/registry"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/azure"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
)

func init() {
	registry.Register("azure", "recon", AzureUserProfiles.Metadata().Properties()["id"].(string), *AzureUserProfiles)
}

var AzureUserProfiles = chain.NewModule(
	cfg.NewMetadata(
		"User Profiles",
		"Fetch directory profiles for every principal in the combined aggregate",
	).WithProperties(map[string]any{
		"id":          "user-profiles",
		"platform":    "azure",
		"opsec_level": "stealth",
		"authors":     []string{"PrimitiveContext"},
		"references": []string{
			"https://learn.microsoft.com/en-us/graph/api/user-get",
		},
	}),
).WithLinks(
	azure.NewAzureUserProfileCollectorLink,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
