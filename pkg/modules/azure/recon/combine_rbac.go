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
	registry.Register("azure", "recon", AzureCombineRBAC.Metadata().Properties()["id"].(string), *AzureCombineRBAC)
}

var AzureCombineRBAC = chain.NewModule(
	cfg.NewMetadata(
		"Combine RBAC",
		"Fuse direct and group-derived assignments into the count-annotated aggregate tree",
	).WithProperties(map[string]any{
		"id":          "combine-rbac",
		"platform":    "azure",
		"opsec_level": "none",
		"authors":     []string{"PrimitiveContext"},
	}),
).WithLinks(
	azure.NewAzureCombineRBACLink,
).WithOutputters(
	outputters.NewSnapshotJSONOutputter,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
