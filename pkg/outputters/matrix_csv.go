package outputters

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/message"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// RoleMatrixCSVOutputter writes flattened role-matrix rows to CSV, one row
// per (principal, role, scope) leaf, frequency first so the sheet sorts by
// how common a role is.
type RoleMatrixCSVOutputter struct {
	*chain.BaseOutputter
	rows       []rbac.MatrixRow
	outputFile string
}

func NewRoleMatrixCSVOutputter(configs ...cfg.Config) chain.Outputter {
	o := &RoleMatrixCSVOutputter{}
	o.BaseOutputter = chain.NewBaseOutputter(o, configs...)
	return o
}

func (o *RoleMatrixCSVOutputter) Initialize() error {
	outputDir, err := cfg.As[string](o.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	o.outputFile = filepath.Join(outputDir, rbac.RoleMatrixCSV)
	return nil
}

func (o *RoleMatrixCSVOutputter) Output(v any) error {
	if row, ok := v.(rbac.MatrixRow); ok {
		o.rows = append(o.rows, row)
	}
	return nil
}

func (o *RoleMatrixCSVOutputter) Complete() error {
	if err := writeMatrixCSV(o.outputFile, roleMatrixHeader, o.rows, roleMatrixRecord); err != nil {
		return err
	}
	message.Success("CSV output written to %s (%d rows)", o.outputFile, len(o.rows))
	return nil
}

func (o *RoleMatrixCSVOutputter) Params() []cfg.Param {
	return []cfg.Param{
		cfg.NewParam[string]("output", "output directory").WithDefault("azure_enum_rbac"),
	}
}

// UserMatrixCSVOutputter writes resource-expanded user-matrix rows to CSV.
type UserMatrixCSVOutputter struct {
	*chain.BaseOutputter
	rows       []rbac.MatrixRow
	outputFile string
}

func NewUserMatrixCSVOutputter(configs ...cfg.Config) chain.Outputter {
	o := &UserMatrixCSVOutputter{}
	o.BaseOutputter = chain.NewBaseOutputter(o, configs...)
	return o
}

func (o *UserMatrixCSVOutputter) Initialize() error {
	outputDir, err := cfg.As[string](o.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	o.outputFile = filepath.Join(outputDir, rbac.UserMatrixCSV)
	return nil
}

func (o *UserMatrixCSVOutputter) Output(v any) error {
	if row, ok := v.(rbac.MatrixRow); ok {
		o.rows = append(o.rows, row)
	}
	return nil
}

func (o *UserMatrixCSVOutputter) Complete() error {
	if err := writeMatrixCSV(o.outputFile, userMatrixHeader, o.rows, userMatrixRecord); err != nil {
		return err
	}
	message.Success("CSV output written to %s (%d rows)", o.outputFile, len(o.rows))
	return nil
}

func (o *UserMatrixCSVOutputter) Params() []cfg.Param {
	return []cfg.Param{
		cfg.NewParam[string]("output", "output directory").WithDefault("azure_enum_rbac"),
	}
}

var roleMatrixHeader = []string{
	"principle_count", "role", "name", "displayName", "jobTitle", "principalID", "scope",
}

var userMatrixHeader = []string{
	"name", "displayName", "jobTitle", "principalID", "role", "scope", "resource_count", "resource_path",
}

func roleMatrixRecord(row rbac.MatrixRow) []string {
	return []string{
		strconv.Itoa(row.PrincipalFrequency),
		row.Role,
		row.Name,
		row.DisplayName,
		row.JobTitle,
		row.PrincipalID,
		row.Scope,
	}
}

func userMatrixRecord(row rbac.MatrixRow) []string {
	return []string{
		row.Name,
		row.DisplayName,
		row.JobTitle,
		row.PrincipalID,
		row.Role,
		row.Scope,
		strconv.Itoa(row.ResourceCount),
		row.ResourcePath,
	}
}

func writeMatrixCSV(path string, header []string, rows []rbac.MatrixRow, record func(rbac.MatrixRow) []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(record(row)); err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}
	return writer.Error()
}
