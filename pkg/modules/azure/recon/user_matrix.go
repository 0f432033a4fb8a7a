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
	registry.Register("azure", "recon", AzureUserMatrix.Metadata().Properties()["id"].(string), *AzureUserMatrix)
}

var AzureUserMatrix = chain.NewModule(
	cfg.NewMetadata(
		"User Matrix",
		"Flatten the joined identities down to resource-level rows using the inventories",
	).WithProperties(map[string]any{
		"id":          "user-matrix",
		"platform":    "azure",
		"opsec_level": "none",
		"authors":     []string{"PrimitiveContext"},
	}),
).WithLinks(
	azure.NewAzureUserMatrixLink,
).WithOutputters(
	outputters.NewSnapshotJSONOutputter,
	outputters.NewUserMatrixCSVOutputter,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
