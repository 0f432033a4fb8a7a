package outputters

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/praetorian-inc/janus-framework/pkg/chain"
	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"

	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// NamedOutputData pairs a payload with the snapshot file it belongs in.
// Links emit these so a single outputter can fan results out to the
// per-phase files under the output directory.
type NamedOutputData struct {
	OutputFilename string
	Data           any
}

func NewNamedOutputData(data any, filename string) NamedOutputData {
	return NamedOutputData{OutputFilename: filename, Data: data}
}

// SnapshotJSONOutputter writes every NamedOutputData it receives as one JSON
// snapshot under the configured output directory. Writes go through the
// snapshot store so they are atomic; an interrupted run never leaves a
// half-written phase output behind.
type SnapshotJSONOutputter struct {
	*chain.BaseOutputter
	store   *rbac.Store
	pending []NamedOutputData
}

func NewSnapshotJSONOutputter(configs ...cfg.Config) chain.Outputter {
	o := &SnapshotJSONOutputter{}
	o.BaseOutputter = chain.NewBaseOutputter(o, configs...)
	return o
}

func (o *SnapshotJSONOutputter) Initialize() error {
	outputDir, err := cfg.As[string](o.Arg("output"))
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}
	o.store = rbac.NewStore(outputDir)
	return nil
}

// Output buffers named payloads; anything else is ignored so this outputter
// can share a chain with console outputters.
func (o *SnapshotJSONOutputter) Output(val any) error {
	named, ok := val.(NamedOutputData)
	if !ok {
		return nil
	}
	if named.OutputFilename == "" {
		return fmt.Errorf("snapshot output requires a filename")
	}
	o.pending = append(o.pending, named)
	return nil
}

func (o *SnapshotJSONOutputter) Complete() error {
	for _, named := range o.pending {
		path := named.OutputFilename
		if !filepath.IsAbs(path) {
			path = o.store.Path(path)
		}
		if err := o.store.SaveAt(path, named.Data); err != nil {
			return err
		}
		slog.Debug("wrote snapshot", "path", path)
	}
	return nil
}

func (o *SnapshotJSONOutputter) Params() []cfg.Param {
	return []cfg.Param{
		cfg.NewParam[string]("output", "output directory").WithDefault("azure_enum_rbac"),
	}
}
