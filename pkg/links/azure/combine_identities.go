package azure

import (
	"fmt"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/links/options"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/outputters"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// AzureCombineIdentitiesLink joins the fetched directory profiles with the
// combined aggregate, grouping principals under each person's full name.
type AzureCombineIdentitiesLink struct {
	*chain.Base
}

func NewAzureCombineIdentitiesLink(configs ...cfg.Config) chain.Link {
	l := &AzureCombineIdentitiesLink{}
	l.Base = chain.NewBase(l, configs...)
	return l
}

func (l *AzureCombineIdentitiesLink) Params() []cfg.Param {
	return []cfg.Param{
		options.OutputDir(),
	}
}

func (l *AzureCombineIdentitiesLink) Process(input any) error {
	outputDir, err := cfg.As[string](l.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	store := rbac.NewStore(outputDir)

	var aggregate rbac.Aggregate
	if err := store.Load(rbac.CombinedRBACFile, &aggregate); err != nil {
		return fmt.Errorf("failed to load combined RBAC snapshot: %w", err)
	}

	profiles := make(map[string]types.UserProfile)
	if err := store.Load(rbac.UserProfilesFile, &profiles); err != nil {
		return fmt.Errorf("failed to load user profiles snapshot: %w", err)
	}

	joined := rbac.Join(profiles, aggregate)

	l.Logger.Info("Joined identities", "names", len(joined), "profiles", len(profiles))

	if err := l.Send(joined); err != nil {
		return err
	}
	return l.Send(outputters.NewNamedOutputData(joined, rbac.IdentitiesFile))
}
