package azure

import (
	"fmt"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/outputters"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// loadIdentities reads the joined identities snapshot for the rendering
// links.
func loadIdentities(store *rbac.Store) (rbac.Identities, error) {
	var joined rbac.Identities
	if err := store.Load(rbac.IdentitiesFile, &joined); err != nil {
		return nil, fmt.Errorf("failed to load identities snapshot: %w", err)
	}
	return joined, nil
}

// AzureRoleMatrixLink flattens the joined identities into one row per
// (principal, role, scope) leaf, stamped with each role's global frequency.
// Rows go downstream for the CSV outputter; the full row set is also written
// as a JSON snapshot.
type AzureRoleMatrixLink struct {
	*chain.Base
}

func NewAzureRoleMatrixLink(configs ...cfg.Config) chain.Link {
	l := &AzureRoleMatrixLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureRoleMatrixLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureRoleMatrixLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	store := rbac.NewStore(outputDir)

	joined, err := loadIdentities(store)
	if err != nil {
		return err
	}

	rows := rbac.FlattenRoleMatrix(joined)
	l.Logger.Info("Flattened role matrix", "rows", len(rows))

	for _, row := range rows {
		if err := l.Send(row); err != nil {
			return err
		}
	}
	return l.Send(outputters.NewNamedOutputData(rows, rbac.RoleMatrixJSON))
}

// AzureUserMatrixLink flattens the joined identities down to resource-level
// rows, consulting the resource inventories to expand subscription-scoped
// leaves into per-resource-group rows.
type AzureUserMatrixLink struct {
	*chain.Base
}

func NewAzureUserMatrixLink(configs ...cfg.Config) chain.Link {
	l := &AzureUserMatrixLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureUserMatrixLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureUserMatrixLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	store := rbac.NewStore(outputDir)

	joined, err := loadIdentities(store)
	if err != nil {
		return err
	}

	subs, err := store.LoadSubscriptions()
	if err != nil {
		return fmt.Errorf("failed to load subscriptions snapshot: %w", err)
	}
	inventories, err := store.LoadInventories(subs)
	if err != nil {
		return err
	}

	rows := rbac.FlattenUserMatrix(joined, inventories)
	l.Logger.Info("Flattened user matrix", "rows", len(rows))

	for _, row := range rows {
		if err := l.Send(row); err != nil {
			return err
		}
	}
	return l.Send(outputters.NewNamedOutputData(rows, rbac.UserMatrixJSON))
}
