package azure

import (
	"fmt"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/outputters"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// AzureUserChartLink shapes the joined identities into user bubbles and
// keeps only those above the average total, the way the HTML chart expects.
type AzureUserChartLink struct {
	*chain.Base
}

func NewAzureUserChartLink(configs ...cfg.Config) chain.Link {
	l := &AzureUserChartLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureUserChartLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureUserChartLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	joined, err := loadIdentities(rbac.NewStore(outputDir))
	if err != nil {
		return err
	}

	bubbles := rbac.BuildUserBubbles(joined)
	filtered, avg := rbac.FilterAboveAverage(bubbles)

	l.Logger.Info("Built user chart dataset",
		"users", len(bubbles),
		"aboveAverage", len(filtered),
		"average", avg)

	if err := l.Send(outputters.ChartAverage(avg)); err != nil {
		return err
	}
	for _, bubble := range filtered {
		if err := l.Send(bubble); err != nil {
			return err
		}
	}
	return nil
}

// AzureRoleChartLink shapes the joined identities into one bubble per role,
// sized by assignment count.
type AzureRoleChartLink struct {
	*chain.Base
}

func NewAzureRoleChartLink(configs ...cfg.Config) chain.Link {
	l := &AzureRoleChartLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureRoleChartLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureRoleChartLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	joined, err := loadIdentities(rbac.NewStore(outputDir))
	if err != nil {
		return err
	}

	bubbles := rbac.BuildRoleBubbles(joined)
	l.Logger.Info("Built role chart dataset", "roles", len(bubbles))

	for _, bubble := range bubbles {
		if err := l.Send(bubble); err != nil {
			return err
		}
	}
	return nil
}
