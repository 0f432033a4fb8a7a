package helpers

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
)

var graphScopes = []string{"https://graph.microsoft.com/.default"}

// NewAzureCredential builds the default credential chain (environment,
// managed identity, Azure CLI).
func NewAzureCredential() (*azidentity.DefaultAzureCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return cred, nil
}

// NewGraphClient builds a Microsoft Graph client authenticated with the
// default credential chain.
func NewGraphClient() (*msgraphsdk.GraphServiceClient, error) {
	cred, err := NewAzureCredential()
	if err != nil {
		return nil, err
	}

	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, graphScopes)
	if err != nil {
		return nil, fmt.Errorf("failed to create Graph client: %w", err)
	}
	return client, nil
}
