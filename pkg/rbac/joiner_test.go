package rbac

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

func TestFullName(t *testing.T) {
	tests := []struct {
		name    string
		profile types.UserProfile
		want    string
	}{
		{
			name:    "given and surname",
			profile: types.UserProfile{GivenName: "Ada", Surname: "Lovelace", DisplayName: "A. Lovelace"},
			want:    "Ada Lovelace",
		},
		{
			name:    "surname only",
			profile: types.UserProfile{Surname: "Lovelace"},
			want:    "Lovelace",
		},
		{
			name:    "whitespace parts fall through to display name",
			profile: types.UserProfile{GivenName: "  ", DisplayName: "Service Desk"},
			want:    "Service Desk",
		},
		{
			name:    "user principal name fallback",
			profile: types.UserProfile{UserPrincipalName: "ada@contoso.com"},
			want:    "ada@contoso.com",
		},
		{
			name:    "empty profile",
			profile: types.UserProfile{},
			want:    UnknownName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FullName(tt.profile))
		})
	}
}

func TestJoinPhoneNormalization(t *testing.T) {
	profiles := map[string]types.UserProfile{
		"u-none": {GivenName: "No", Surname: "Phones"},
		"u-one":  {GivenName: "One", Surname: "Phone", BusinessPhones: []string{"+1 555 0100"}},
		"u-two":  {GivenName: "Two", Surname: "Phones", BusinessPhones: []string{"+1 555 0100", "+1 555 0101"}},
	}

	joined := Join(profiles, make(Aggregate))

	none := joined["No Phones"]["u-none"]
	assert.Empty(t, none.BusinessPhone)
	assert.Nil(t, none.BusinessPhones)

	one := joined["One Phone"]["u-one"]
	assert.Equal(t, "+1 555 0100", one.BusinessPhone)
	assert.Nil(t, one.BusinessPhones)

	two := joined["Two Phones"]["u-two"]
	assert.Empty(t, two.BusinessPhone)
	assert.Equal(t, []string{"+1 555 0100", "+1 555 0101"}, two.BusinessPhones)
}

func TestJoinAttachesRBACOnlyWhenPresent(t *testing.T) {
	aggregate := make(Aggregate)
	aggregate.Add("u-assigned", "Reader", "S1", "/subscriptions/S1", 3)
	aggregate.bubbleUp()

	profiles := map[string]types.UserProfile{
		"u-assigned": {DisplayName: "Assigned User"},
		"u-plain":    {DisplayName: "Plain User"},
	}

	joined := Join(profiles, aggregate)

	assigned := joined["Assigned User"]["u-assigned"]
	require.NotNil(t, assigned.RBAC)
	assert.Equal(t, 3, assigned.RBAC.Total)

	plain := joined["Plain User"]["u-plain"]
	assert.Nil(t, plain.RBAC)

	data, err := json.Marshal(plain)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "rbac")
}

func TestJoinSiblingPrincipalsShareName(t *testing.T) {
	profiles := map[string]types.UserProfile{
		"u-primary": {GivenName: "Sam", Surname: "Chen", Mail: "sam@contoso.com"},
		"u-guest":   {GivenName: "Sam", Surname: "Chen", Mail: "sam_gmail#EXT@contoso.com"},
	}

	joined := Join(profiles, make(Aggregate))

	require.Len(t, joined, 1)
	require.Len(t, joined["Sam Chen"], 2)
	assert.Equal(t, "sam@contoso.com", joined["Sam Chen"]["u-primary"].Mail)
	assert.Equal(t, "sam_gmail#EXT@contoso.com", joined["Sam Chen"]["u-guest"].Mail)
}

func TestJoinOmitsEmptyFields(t *testing.T) {
	profiles := map[string]types.UserProfile{
		"u-min": {DisplayName: "Minimal"},
	}

	data, err := json.Marshal(Join(profiles, make(Aggregate)))
	require.NoError(t, err)

	payload := string(data)
	assert.Contains(t, payload, `"displayName":"Minimal"`)
	assert.NotContains(t, payload, "null")
	assert.NotContains(t, payload, "mobilePhone")
	assert.NotContains(t, payload, "jobTitle")
}
