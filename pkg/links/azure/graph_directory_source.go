package azure

import (
	"context"
	"fmt"

	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/groups"
	"github.com/microsoftgraph/msgraph-sdk-go/models"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// memberPageSize is the Graph maximum page size for member listings.
const memberPageSize = 999

// GraphDirectorySource reads group metadata and member pages from Microsoft
// Graph. It is the live counterpart of the fake directories the expansion
// tests use.
type GraphDirectorySource struct {
	client *msgraphsdk.GraphServiceClient
}

func NewGraphDirectorySource(client *msgraphsdk.GraphServiceClient) *GraphDirectorySource {
	return &GraphDirectorySource{client: client}
}

func (g *GraphDirectorySource) GroupDisplayName(ctx context.Context, groupID string) (string, error) {
	group, err := g.client.Groups().ByGroupId(groupID).Get(ctx, &groups.GroupItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &groups.GroupItemRequestBuilderGetQueryParameters{
			Select: []string{"id", "displayName"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get group %s: %w", groupID, err)
	}
	if group.GetDisplayName() == nil {
		return "", nil
	}
	return *group.GetDisplayName(), nil
}

// GroupMemberPage fetches one page of direct members. The cursor is the raw
// @odata.nextLink from the previous page, replayed through the request
// builder unchanged.
func (g *GraphDirectorySource) GroupMemberPage(ctx context.Context, groupID, nextLink string) (*rbac.MemberPage, error) {
	builder := g.client.Groups().ByGroupId(groupID).Members()

	var resp models.DirectoryObjectCollectionResponseable
	var err error
	if nextLink == "" {
		resp, err = builder.Get(ctx, &groups.ItemMembersRequestBuilderGetRequestConfiguration{
			QueryParameters: &groups.ItemMembersRequestBuilderGetQueryParameters{
				Select: []string{"id"},
				Top:    int32Ptr(memberPageSize),
			},
		})
	} else {
		resp, err = builder.WithUrl(nextLink).Get(ctx, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list members of group %s: %w", groupID, err)
	}

	page := &rbac.MemberPage{}
	for _, obj := range resp.GetValue() {
		if obj == nil || obj.GetId() == nil {
			continue
		}
		member := rbac.Member{ID: *obj.GetId()}
		if odataType := obj.GetOdataType(); odataType != nil {
			member.Type = *odataType
		}
		page.Members = append(page.Members, member)
	}
	if link := resp.GetOdataNextLink(); link != nil {
		page.NextLink = *link
	}
	return page, nil
}

func int32Ptr(v int32) *int32 {
	return &v
}
