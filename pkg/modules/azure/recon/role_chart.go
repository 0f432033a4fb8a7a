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
	registry.Register("azure", "recon", AzureRoleChart.Metadata().Properties()["id"].(string), *AzureRoleChart)
}

var AzureRoleChart = chain.NewModule(
	cfg.NewMetadata(
		"Role Chart",
		"Render every role as a bubble sized by its assignment count",
	).WithProperties(map[string]any{
		"id":          "role-chart",
		"platform":    "azure",
		"opsec_level": "none",
		"authors":     []string{"PrimitiveContext"},
	}),
).WithLinks(
	azure.NewAzureRoleChartLink,
).WithOutputters(
	outputters.NewRoleChartHTMLOutputter,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
