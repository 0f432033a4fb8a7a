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
	registry.Register("azure", "recon", AzureRoleMatrix.Metadata().Properties()["id"].(string), *AzureRoleMatrix)
}

var AzureRoleMatrix = chain.NewModule(
	cfg.NewMetadata(
		"Role Matrix",
		"Flatten the joined identities into per-assignment rows with global role frequencies",
	).WithProperties(map[string]any{
		"id":          "role-matrix",
		"platform":    "azure",
		"opsec_level": "none",
		"authors":     []string{"PrimitiveContext"},
	}),
).WithLinks(
	azure.NewAzureRoleMatrixLink,
).WithOutputters(
	outputters.NewSnapshotJSONOutputter,
	outputters.NewRoleMatrixCSVOutputter,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
