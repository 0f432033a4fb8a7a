package azure

import (
	"fmt"
	"sort"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization"
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/helpers"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/outputters"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// AzureRoleDefinitionsCollectorLink lists every role definition (built-in
// and custom) visible at each subscription scope. Definitions repeat across
// subscriptions, so they are deduplicated by ID and flushed once as a single
// snapshot when the chain completes.
type AzureRoleDefinitionsCollectorLink struct {
	*chain.Base
	definitions map[string]types.RoleDefinition
}

func NewAzureRoleDefinitionsCollectorLink(configs ...cfg.Config) chain.Link {
	l := &AzureRoleDefinitionsCollectorLink{
		definitions: make(map[string]types.RoleDefinition),
	}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureRoleDefinitionsCollectorLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureRoleDefinitionsCollectorLink) Process(input any) error {
	sub, ok := input.(types.Subscription)
	if !ok {
		return fmt.Errorf("expected types.Subscription input, got %T", input)
	}

	cred, err := helpers.NewAzureCredential()
	if err != nil {
		return err
	}

	client, err := armauthorization.NewRoleDefinitionsClient(cred, nil)
	if err != nil {
		return fmt.Errorf("failed to create role definitions client: %w", err)
	}

	scope := fmt.Sprintf("/subscriptions/%s", sub.ID)
	pager := client.NewListPager(scope, nil)

	found := 0
	for pager.More() {
		page, err := pager.NextPage(l.Context())
		if err != nil {
			l.Logger.Error("Failed to list role definitions", "subscription", sub.ID, "error", err)
			return nil
		}

		for _, def := range page.Value {
			if def == nil || def.ID == nil || def.Properties == nil {
				continue
			}

			record := types.RoleDefinition{ID: *def.ID}
			if def.Name != nil {
				record.Name = *def.Name
			}
			if def.Properties.RoleName != nil {
				record.RoleName = *def.Properties.RoleName
			}
			if def.Properties.RoleType != nil {
				record.RoleType = *def.Properties.RoleType
			}
			if def.Properties.Description != nil {
				record.Description = *def.Properties.Description
			}

			l.definitions[record.ID] = record
			found++
		}
	}

	l.Logger.Info("Listed role definitions", "subscription", sub.ID, "count", found)
	return nil
}

func (l *AzureRoleDefinitionsCollectorLink) Complete() error {
	list := make([]types.RoleDefinition, 0, len(l.definitions))
	for _, def := range l.definitions {
		list = append(list, def)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	l.Logger.Info("Collected role definitions", "total", len(list))
	return l.Send(outputters.NewNamedOutputData(list, rbac.RoleDefinitionsFile))
}
