package rbac

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/types"
)

// Snapshot file names within the output directory. Each pipeline phase reads
// the previous phase's snapshot and writes its own; nothing is updated in
// place after being written.
const (
	SubscriptionsFile   = "subscriptions.json"
	RoleDefinitionsFile = "role_definitions.json"
	CombinedRBACFile    = "combined_rbac_users.json"
	UserProfilesFile    = "user_profiles.json"
	IdentitiesFile      = "combined_user_identities.json"
	RoleMatrixCSV       = "role_matrix.csv"
	RoleMatrixJSON      = "role_matrix.json"
	UserMatrixCSV       = "user_matrix.csv"
	UserMatrixJSON      = "user_matrix.json"
	RoleChartFile       = "role_chart.html"
	UserChartFile       = "user_chart.html"

	resourcesDir    = "resources"
	assignmentsDir  = "assignments"
	groupMembersDir = "group_members"
)

// Store reads and writes phase snapshots under one output directory.
// Writes are whole-file and atomic (temp file + rename) so a fatal error
// never leaves a partial snapshot behind.
type Store struct {
	dir string
}

func NewStore(outputDir string) *Store {
	return &Store{dir: outputDir}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) ResourcesPath(subscriptionID string) string {
	return filepath.Join(s.dir, resourcesDir, subscriptionID+"_resources.json")
}

func (s *Store) AssignmentsPath(subscriptionID, principalType string) string {
	return filepath.Join(s.dir, assignmentsDir, subscriptionID, sanitizeFilename(principalType)+".json")
}

func (s *Store) GroupMembersPath(subscriptionID string) string {
	return filepath.Join(s.dir, groupMembersDir, subscriptionID+"_group_members.json")
}

// GroupMembersErrorLog is the diagnostic side channel for the expansion
// phase.
func (s *Store) GroupMembersErrorLog() string {
	return filepath.Join(s.dir, groupMembersDir, "members_errors.log")
}

// Save marshals v and writes it atomically, creating parent directories as
// needed.
func (s *Store) Save(name string, v any) error {
	return writeJSON(s.Path(name), v)
}

func (s *Store) SaveAt(path string, v any) error {
	return writeJSON(path, v)
}

// Load reads a snapshot into v. A missing file is reported as os.ErrNotExist
// so callers can distinguish missing-input from malformed-data; a parse
// failure names the offending path.
func (s *Store) Load(name string, v any) error {
	return readJSON(s.Path(name), v)
}

func (s *Store) LoadAt(path string, v any) error {
	return readJSON(path, v)
}

// LoadSubscriptions reads the subscription list snapshot.
func (s *Store) LoadSubscriptions() ([]types.Subscription, error) {
	var subs []types.Subscription
	if err := s.Load(SubscriptionsFile, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// LoadInventory reads one subscription's resource inventory. Returns nil
// without error when the snapshot is absent: one subscription's missing
// resource file must not stop the others.
func (s *Store) LoadInventory(subscriptionID string) (*types.ResourceInventory, error) {
	var inv types.ResourceInventory
	err := s.LoadAt(s.ResourcesPath(subscriptionID), &inv)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// LoadInventories reads every subscription's inventory, skipping absent
// ones.
func (s *Store) LoadInventories(subs []types.Subscription) (map[string]*types.ResourceInventory, error) {
	result := make(map[string]*types.ResourceInventory, len(subs))
	for _, sub := range subs {
		if sub.ID == "" {
			continue
		}
		inv, err := s.LoadInventory(sub.ID)
		if err != nil {
			return nil, err
		}
		if inv != nil {
			result[sub.ID] = inv
		}
	}
	return result, nil
}

// LoadAssignments reads one (subscription, principalType) partition. Absent
// partitions yield nil without error.
func (s *Store) LoadAssignments(subscriptionID, principalType string) (types.AssignmentsByPrincipal, error) {
	var assignments types.AssignmentsByPrincipal
	err := s.LoadAt(s.AssignmentsPath(subscriptionID, principalType), &assignments)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// LoadGroupMembers reads one subscription's expansion snapshot. Absent
// snapshots yield nil without error: group assignments without an expansion
// are skipped, not failed.
func (s *Store) LoadGroupMembers(subscriptionID string) (types.GroupMembershipBySubscription, error) {
	var members types.GroupMembershipBySubscription
	err := s.LoadAt(s.GroupMembersPath(subscriptionID), &members)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return members, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// sanitizeFilename lowercases and keeps only alphanumerics, making principal
// type names safe as partition file names ("ServicePrincipal" ->
// "serviceprincipal").
func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
