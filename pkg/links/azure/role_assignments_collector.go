package azure

import (
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/managementgroups/armmanagementgroups"
	"github.com/google/uuid"
	"github.com/microsoftgraph/msgraph-sdk-go/directoryobjects"
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/helpers"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// graphGetByIDsLimit is the maximum number of IDs one getByIds call accepts.
const graphGetByIDsLimit = 1000

// managementGroupScopePrefix marks assignments inherited from a management
// group rather than granted inside the subscription.
const managementGroupScopePrefix = "/providers/Microsoft.Management/managementGroups/"

// AzureRoleAssignmentsCollectorLink lists every role assignment at a
// subscription's scope, resolves role display names and principal types, and
// writes one partition file per principal type under
// assignments/<subscription>/. Principals whose directory object cannot be
// resolved land in the unknown partition.
type AzureRoleAssignmentsCollectorLink struct {
	*chain.Base
	roleNames map[string]string
	mgNames   map[string]string
}

func NewAzureRoleAssignmentsCollectorLink(configs ...cfg.Config) chain.Link {
	l := &AzureRoleAssignmentsCollectorLink{
		roleNames: make(map[string]string),
	}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureRoleAssignmentsCollectorLink) Params() []cfg.Param {
	return options.AzureRBACBaseOptions()
}

func (l *AzureRoleAssignmentsCollectorLink) Process(input any) error {
	sub, ok := input.(types.Subscription)
	if !ok {
		return fmt.Errorf("expected types.Subscription input, got %T", input)
	}

	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	store := rbac.NewStore(outputDir)

	assignments, err := l.collectAssignments(sub)
	if err != nil {
		l.Logger.Error("Failed to collect role assignments", "subscription", sub.ID, "error", err)
		return nil
	}

	principalTypes, err := l.resolvePrincipalTypes(assignments)
	if err != nil {
		l.Logger.Warn("Failed to resolve principal types; using unknown", "subscription", sub.ID, "error", err)
		principalTypes = map[string]string{}
	}

	partitions := make(map[string]types.AssignmentsByPrincipal)
	for _, assignment := range assignments {
		principalType, ok := principalTypes[assignment.PrincipalID]
		if !ok {
			principalType = "Unknown"
		}
		assignment.PrincipalType = principalType

		if partitions[principalType] == nil {
			partitions[principalType] = make(types.AssignmentsByPrincipal)
		}
		partitions[principalType][assignment.PrincipalID] = assignment
	}

	for principalType, partition := range partitions {
		if err := store.SaveAt(store.AssignmentsPath(sub.ID, principalType), partition); err != nil {
			return err
		}
	}

	l.Logger.Info("Partitioned role assignments",
		"subscription", sub.ID,
		"assignments", len(assignments),
		"partitions", len(partitions))
	return nil
}

func (l *AzureRoleAssignmentsCollectorLink) collectAssignments(sub types.Subscription) ([]types.RoleAssignment, error) {
	cred, err := helpers.NewAzureCredential()
	if err != nil {
		return nil, err
	}

	authClient, err := armauthorization.NewRoleAssignmentsClient(sub.ID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create role assignments client: %w", err)
	}
	roleDefClient, err := armauthorization.NewRoleDefinitionsClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create role definitions client: %w", err)
	}

	scope := fmt.Sprintf("/subscriptions/%s", sub.ID)
	pager := authClient.NewListForScopePager(scope, nil)

	var assignments []types.RoleAssignment
	for pager.More() {
		page, err := pager.NextPage(l.Context())
		if err != nil {
			return nil, fmt.Errorf("failed to list role assignments: %w", err)
		}

		for _, assignment := range page.Value {
			if assignment == nil || assignment.Properties == nil ||
				assignment.Properties.PrincipalID == nil ||
				assignment.Properties.RoleDefinitionID == nil ||
				assignment.Properties.Scope == nil {
				continue
			}

			record := types.RoleAssignment{
				PrincipalID:      *assignment.Properties.PrincipalID,
				RoleDefinitionID: *assignment.Properties.RoleDefinitionID,
				Scope:            *assignment.Properties.Scope,
				SubscriptionID:   sub.ID,
			}
			if assignment.ID != nil {
				record.ID = *assignment.ID
			}
			record.RoleDefinitionName = l.roleDisplayName(roleDefClient, record.Scope, record.RoleDefinitionID)
			if strings.HasPrefix(record.Scope, managementGroupScopePrefix) {
				record.ScopeDisplayName = l.managementGroupName(cred, record.Scope)
			}

			assignments = append(assignments, record)
		}
	}

	return assignments, nil
}

// roleDisplayName resolves a role definition ID to its display name, caching
// across subscriptions since built-in definitions repeat everywhere. Failed
// lookups fall back to the definition ID so the assignment stays usable.
func (l *AzureRoleAssignmentsCollectorLink) roleDisplayName(client *armauthorization.RoleDefinitionsClient, scope, roleDefinitionID string) string {
	if name, ok := l.roleNames[roleDefinitionID]; ok {
		return name
	}

	name := roleDefinitionID
	resp, err := client.Get(l.Context(), scope, roleDefinitionID, nil)
	if err != nil {
		l.Logger.Warn("Failed to resolve role definition", "roleDefinitionId", roleDefinitionID, "error", err)
	} else if resp.Properties != nil && resp.Properties.RoleName != nil {
		name = *resp.Properties.RoleName
	}

	l.roleNames[roleDefinitionID] = name
	return name
}

// managementGroupName maps a management-group scope to the group's display
// name. The group list is fetched once per subscription; callers without the
// Management Groups read permission just get empty names.
func (l *AzureRoleAssignmentsCollectorLink) managementGroupName(cred *azidentity.DefaultAzureCredential, scope string) string {
	if l.mgNames == nil {
		l.mgNames = make(map[string]string)

		client, err := armmanagementgroups.NewClient(cred, &arm.ClientOptions{})
		if err != nil {
			l.Logger.Warn("Failed to create management groups client", "error", err)
			return ""
		}

		pager := client.NewListPager(nil)
		for pager.More() {
			page, err := pager.NextPage(l.Context())
			if err != nil {
				l.Logger.Debug("Failed to list management groups", "error", err)
				break
			}
			for _, mg := range page.Value {
				if mg == nil || mg.Name == nil || mg.Properties == nil || mg.Properties.DisplayName == nil {
					continue
				}
				l.mgNames[*mg.Name] = *mg.Properties.DisplayName
			}
		}
	}

	groupID := strings.TrimPrefix(scope, managementGroupScopePrefix)
	return l.mgNames[groupID]
}

// resolvePrincipalTypes classifies every assignment's principal via the
// directory's getByIds endpoint, batched to its request limit. IDs the
// directory does not return (deleted principals, foreign tenants) are simply
// absent from the result.
func (l *AzureRoleAssignmentsCollectorLink) resolvePrincipalTypes(assignments []types.RoleAssignment) (map[string]string, error) {
	ids := make([]string, 0, len(assignments))
	seen := make(map[string]struct{}, len(assignments))
	for _, assignment := range assignments {
		if _, ok := seen[assignment.PrincipalID]; ok {
			continue
		}
		seen[assignment.PrincipalID] = struct{}{}

		// getByIds rejects requests containing malformed IDs wholesale.
		if _, err := uuid.Parse(assignment.PrincipalID); err != nil {
			l.Logger.Warn("Skipping malformed principal ID", "principalId", assignment.PrincipalID)
			continue
		}
		ids = append(ids, assignment.PrincipalID)
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	graphClient, err := helpers.NewGraphClient()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += graphGetByIDsLimit {
		end := start + graphGetByIDsLimit
		if end > len(ids) {
			end = len(ids)
		}

		body := directoryobjects.NewGetByIdsPostRequestBody()
		body.SetIds(ids[start:end])

		resp, err := graphClient.DirectoryObjects().GetByIds().PostAsGetByIdsPostResponse(l.Context(), body, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory objects: %w", err)
		}

		for _, obj := range resp.GetValue() {
			if obj == nil || obj.GetId() == nil {
				continue
			}
			result[*obj.GetId()] = principalTypeFromOdata(obj.GetOdataType())
		}
	}
	return result, nil
}

// principalTypeFromOdata maps a directory object's odata type to the
// partition name the aggregation expects.
func principalTypeFromOdata(odataType *string) string {
	if odataType == nil {
		return "Unknown"
	}
	switch {
	case strings.Contains(strings.ToLower(*odataType), "user"):
		return "User"
	case strings.Contains(strings.ToLower(*odataType), "group"):
		return "Group"
	case strings.Contains(strings.ToLower(*odataType), "serviceprincipal"):
		return "ServicePrincipal"
	default:
		return "Unknown"
	}
}
