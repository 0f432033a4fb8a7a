package types

// Subscription is one Azure subscription visible to the caller.
type Subscription struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// ResourceGroupInventory describes one resource group and the resources it
// holds. Resources are stored as bare resource IDs.
type ResourceGroupInventory struct {
	ResourceGroupName string            `json:"resourceGroupName"`
	ID                string            `json:"id"`
	Location          string            `json:"location,omitempty"`
	Tags              map[string]string `json:"tags,omitempty"`
	ResourceCount     int               `json:"resourceCount"`
	Resources         []string          `json:"resources"`
}

// ResourceInventory is the per-subscription resource snapshot. ResourceCount
// is the number of resources inside listed resource groups; resources outside
// any listed group are possible, so callers must not assume it equals the sum
// of group counts.
type ResourceInventory struct {
	SubscriptionID     string                   `json:"subscriptionId"`
	SubscriptionName   string                   `json:"subscriptionName,omitempty"`
	ResourceGroupCount int                      `json:"resourceGroupCount"`
	ResourceCount      int                      `json:"resourceCount"`
	ResourceGroups     []ResourceGroupInventory `json:"resourceGroups"`
}

// RoleAssignment is one RBAC assignment as collected from ARM, reduced to the
// fields the aggregation consumes.
type RoleAssignment struct {
	ID                 string `json:"id,omitempty"`
	PrincipalID        string `json:"principalId"`
	PrincipalType      string `json:"principalType"`
	RoleDefinitionID   string `json:"roleDefinitionId,omitempty"`
	RoleDefinitionName string `json:"roleDefinitionName"`
	Scope              string `json:"scope"`
	// ScopeDisplayName is set for assignments inherited from a management
	// group, whose scope IDs are otherwise opaque.
	ScopeDisplayName string `json:"scopeDisplayName,omitempty"`
	SubscriptionID   string `json:"subscriptionId,omitempty"`
}

// AssignmentsByPrincipal is one (subscription, principalType) partition file,
// keyed by principal ID. A duplicate principal ID within a partition
// overwrites the earlier record.
type AssignmentsByPrincipal map[string]RoleAssignment

// GroupMembers holds a group's transitive membership split by member kind.
// Others catches service principals, devices and any member type that is
// neither a user nor a group.
type GroupMembers struct {
	Users  []string `json:"users"`
	Groups []string `json:"groups"`
	Others []string `json:"others"`
}

// GroupMembershipRecord is the expansion result for one group. Members is the
// transitive closure: nested group members are flattened into the owning
// group's sets, and a group never lists itself even when the raw directory
// graph contains a cycle.
type GroupMembershipRecord struct {
	DisplayName string       `json:"displayName"`
	Members     GroupMembers `json:"members"`
}

// GroupMembershipBySubscription is the per-subscription expansion snapshot,
// keyed by group ID.
type GroupMembershipBySubscription map[string]GroupMembershipRecord

// RoleDefinition is one role definition (built-in or custom).
type RoleDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RoleName    string `json:"roleName"`
	RoleType    string `json:"roleType,omitempty"`
	Description string `json:"description,omitempty"`
}

// UserProfile is the directory profile subset fetched from Microsoft Graph
// for each principal that holds an assignment.
type UserProfile struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName,omitempty"`
	GivenName         string   `json:"givenName,omitempty"`
	Surname           string   `json:"surname,omitempty"`
	UserPrincipalName string   `json:"userPrincipalName,omitempty"`
	Mail              string   `json:"mail,omitempty"`
	JobTitle          string   `json:"jobTitle,omitempty"`
	MobilePhone       string   `json:"mobilePhone,omitempty"`
	BusinessPhones    []string `json:"businessPhones,omitempty"`
}
