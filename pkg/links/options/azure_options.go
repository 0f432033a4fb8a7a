package options

import (
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"
)

func AzureSubscription() cfg.Param {
	return cfg.NewParam[[]string](
		"subscription",
		"The Azure subscription to use. Can be a subscription ID or 'all'.",
	).WithShortcode("s").WithDefault([]string{"all"})
}

func AzureWorkerCount() cfg.Param {
	return cfg.NewParam[int]("workers", "Number of concurrent workers for processing").
		WithShortcode("w").
		WithDefault(5)
}

func AzureProfileBatchSize() cfg.Param {
	return cfg.NewParam[int]("batch-size", "Number of user profiles fetched per checkpoint batch").
		WithShortcode("b").
		WithDefault(200)
}

// AzureRBACBaseOptions provides the options every RBAC enumeration phase
// shares.
func AzureRBACBaseOptions() []cfg.Param {
	return []cfg.Param{
		AzureSubscription(),
		AzureWorkerCount(),
		OutputDir(),
	}
}
