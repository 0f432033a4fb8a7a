package azure

import (
	"fmt"
	"os"
	"sort"
	"sync"

	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/users"
	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"
	"golang.org/x/sync/semaphore"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/helpers"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// profileSelectFields is the Graph property subset the identity join needs.
var profileSelectFields = []string{
	"id", "displayName", "givenName", "surname", "userPrincipalName",
	"mail", "jobTitle", "mobilePhone", "businessPhones",
}

// AzureUserProfileCollectorLink fetches directory profiles for every
// principal in the combined aggregate. Profiles are fetched in batches with
// the snapshot rewritten after each one, so an interrupted run resumes where
// it stopped instead of refetching the whole directory. A principal whose
// lookup fails (deleted, foreign, not a user) is recorded as an ID-only
// profile so it is not retried forever.
type AzureUserProfileCollectorLink struct {
	*chain.Base
}

func NewAzureUserProfileCollectorLink(configs ...cfg.Config) chain.Link {
	l := &AzureUserProfileCollectorLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureUserProfileCollectorLink) Params() []cfg.Param {
	return []cfg.Param{
		options.AzureWorkerCount(),
		options.AzureProfileBatchSize(),
		options.OutputDir(),
	}
}

func (l *AzureUserProfileCollectorLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	workers, _ := cfg.As[int](l.Arg("workers"))
	if workers < 1 {
		workers = 1
	}
	batchSize, _ := cfg.As[int](l.Arg("batch-size"))
	if batchSize < 1 {
		batchSize = 200
	}

	store := rbac.NewStore(outputDir)

	var aggregate rbac.Aggregate
	if err := store.Load(rbac.CombinedRBACFile, &aggregate); err != nil {
		return fmt.Errorf("failed to load combined RBAC snapshot: %w", err)
	}

	profiles := make(map[string]types.UserProfile)
	if err := store.Load(rbac.UserProfilesFile, &profiles); err != nil && !os.IsNotExist(err) {
		return err
	}

	var remaining []string
	for _, principalID := range aggregate.PrincipalIDs() {
		if _, done := profiles[principalID]; !done {
			remaining = append(remaining, principalID)
		}
	}
	sort.Strings(remaining)

	l.Logger.Info("Fetching user profiles",
		"total", len(aggregate),
		"cached", len(profiles),
		"remaining", len(remaining))

	if len(remaining) > 0 {
		graphClient, err := helpers.NewGraphClient()
		if err != nil {
			return err
		}

		for start := 0; start < len(remaining); start += batchSize {
			end := start + batchSize
			if end > len(remaining) {
				end = len(remaining)
			}

			batch := l.fetchBatch(graphClient, remaining[start:end], workers)
			for id, profile := range batch {
				profiles[id] = profile
			}

			// Checkpoint the snapshot after every batch.
			if err := store.Save(rbac.UserProfilesFile, profiles); err != nil {
				return err
			}
			l.Logger.Info("Fetched profile batch", "done", end, "remaining", len(remaining)-end)
		}
	}

	return l.Send(profiles)
}

func (l *AzureUserProfileCollectorLink) fetchBatch(client *msgraphsdk.GraphServiceClient, ids []string, workers int) map[string]types.UserProfile {
	results := make(map[string]types.UserProfile, len(ids))
	sem := semaphore.NewWeighted(int64(workers))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, id := range ids {
		if err := sem.Acquire(l.Context(), 1); err != nil {
			l.Logger.Warn("profile fetch cancelled", "error", err)
			break
		}

		wg.Add(1)
		go func(principalID string) {
			defer wg.Done()
			defer sem.Release(1)

			profile := l.fetchProfile(client, principalID)

			mu.Lock()
			results[principalID] = profile
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return results
}

func (l *AzureUserProfileCollectorLink) fetchProfile(client *msgraphsdk.GraphServiceClient, principalID string) types.UserProfile {
	user, err := client.Users().ByUserId(principalID).Get(l.Context(), &users.UserItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.UserItemRequestBuilderGetQueryParameters{
			Select: profileSelectFields,
		},
	})
	if err != nil {
		l.Logger.Warn("Failed to fetch user profile", "principal", principalID, "error", err)
		return types.UserProfile{ID: principalID}
	}

	profile := types.UserProfile{ID: principalID}
	if v := user.GetDisplayName(); v != nil {
		profile.DisplayName = *v
	}
	if v := user.GetGivenName(); v != nil {
		profile.GivenName = *v
	}
	if v := user.GetSurname(); v != nil {
		profile.Surname = *v
	}
	if v := user.GetUserPrincipalName(); v != nil {
		profile.UserPrincipalName = *v
	}
	if v := user.GetMail(); v != nil {
		profile.Mail = *v
	}
	if v := user.GetJobTitle(); v != nil {
		profile.JobTitle = *v
	}
	if v := user.GetMobilePhone(); v != nil {
		profile.MobilePhone = *v
	}
	profile.BusinessPhones = user.GetBusinessPhones()
	return profile
}
