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
	registry.Register("azure", "recon", AzureUserChart.Metadata().Properties()["id"].(string), *AzureUserChart)
}

var AzureUserChart = chain.NewModule(
	cfg.NewMetadata(
		"User Chart",
		"Render above-average users as pie-sliced bubbles sized by resource reach",
	).WithProperties(map[string]any{
		"id":          "user-chart",
		"platform":    "azure",
		"opsec_level": "none",
		"authors":     []string{"PrimitiveContext"},
	}),
).WithLinks(
	azure.NewAzureUserChartLink,
).WithOutputters(
	outputters.NewUserChartHTMLOutputter,
).WithInputParam(
	options.OutputDir(),
).WithAutoRun()
