package rbac

import (
	"strings"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// UnknownName is the fallback identity key when a profile carries no given
// name, surname, display name, or user principal name.
const UnknownName = "(Unknown)"

// IdentityRecord is one principal's joined profile plus its RBAC subtree.
// Optional fields are omitted entirely when the profile lacks them; no null
// placeholders. The phone fields are asymmetric on purpose: exactly one
// business phone serializes as the singular field, two or more as the list.
type IdentityRecord struct {
	Mail           string          `json:"mail,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`
	JobTitle       string          `json:"jobTitle,omitempty"`
	MobilePhone    string          `json:"mobilePhone,omitempty"`
	BusinessPhone  string          `json:"businessPhone,omitempty"`
	BusinessPhones []string        `json:"businessPhones,omitempty"`
	RBAC           *PrincipalEntry `json:"rbac,omitempty"`
}

// Identities maps full name -> principal ID -> record. One person with two
// directory identities appears as sibling principal IDs under the shared
// name; merging happens at flatten time, not here.
type Identities map[string]map[string]IdentityRecord

// FullName derives the top-level identity key for a profile:
// "givenName surname" trimmed, falling back to displayName, then
// userPrincipalName, then the literal unknown marker.
func FullName(profile types.UserProfile) string {
	pieces := make([]string, 0, 2)
	for _, part := range []string{profile.GivenName, profile.Surname} {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			pieces = append(pieces, trimmed)
		}
	}
	if len(pieces) > 0 {
		return strings.Join(pieces, " ")
	}
	if profile.DisplayName != "" {
		return profile.DisplayName
	}
	if profile.UserPrincipalName != "" {
		return profile.UserPrincipalName
	}
	return UnknownName
}

// Join combines directory profiles with the aggregate tree. Principals with
// no RBAC subtree get no rbac key at all.
func Join(profiles map[string]types.UserProfile, aggregate Aggregate) Identities {
	combined := make(Identities)

	for principalID, profile := range profiles {
		record := IdentityRecord{
			Mail:        profile.Mail,
			DisplayName: profile.DisplayName,
			JobTitle:    profile.JobTitle,
			MobilePhone: profile.MobilePhone,
		}

		switch len(profile.BusinessPhones) {
		case 0:
			// omitted
		case 1:
			record.BusinessPhone = profile.BusinessPhones[0]
		default:
			record.BusinessPhones = profile.BusinessPhones
		}

		if subtree := aggregate.Subtree(principalID); subtree != nil {
			record.RBAC = subtree
		}

		name := FullName(profile)
		if _, ok := combined[name]; !ok {
			combined[name] = make(map[string]IdentityRecord)
		}
		combined[name][principalID] = record
	}

	return combined
}
