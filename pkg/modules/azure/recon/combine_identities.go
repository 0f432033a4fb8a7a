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
	registry.Register("azure", "recon", AzureCombineIdentities.Metadata().Properties()["id"].(string), *AzureCombineIdentities)
}

var AzureCombineIdentities = chain.NewModule(
	cfg.NewMetadata(
		"Combine Identities",
		"Join directory profiles with the aggregate tree, grouped by full name",
	).WithProperties(map[string]any{
		"id":          "combine-identities",
		"platform":    "azure",
		"opsec_level": "none",
		"authors":     []string{"PrimitiveContext"},
	}),
).WithLinks(
	azure.NewAzureCombineIdentitiesLink,
).WithOutputters(
	outputters.NewSnapshotJSONOutputter,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
