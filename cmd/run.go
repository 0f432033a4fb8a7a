package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/janus-framework/pkg/chain/cfg"
	"github.com/spf13/cobra"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/checkpoint"
	"github.com/PrimitiveContext/AzureEnumRBAC/internal/message"
	"github.com/PrimitiveContext/AzureEnumRBAC/internal/registry"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/modules/azure/recon"
	"github.com/PrimitiveContext/AzureEnumRBAC/pkg/rbac"
)

// finalOutputDir collects the report artifacts of a completed run so users
// don't have to pick them out of the intermediate snapshots.
const finalOutputDir = "FINAL_OUTPUT"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full RBAC enumeration pipeline",
	Long: `Run executes every enumeration phase in order, checkpointing after each
one. An interrupted run resumes from the first unfinished phase; pass
--restart to discard the checkpoint and start over.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringP("output", "o", "azure_enum_rbac", "output directory")
	runCmd.Flags().StringSliceP("subscription", "s", []string{"all"}, "The Azure subscription to use. Can be a subscription ID or 'all'.")
	runCmd.Flags().IntP("workers", "w", 5, "Number of concurrent workers for processing")
	runCmd.Flags().IntP("batch-size", "b", 200, "Number of user profiles fetched per checkpoint batch")
	runCmd.Flags().Bool("restart", false, "discard the run checkpoint and start from the first phase")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	subscriptions, _ := cmd.Flags().GetStringSlice("subscription")
	workers, _ := cmd.Flags().GetInt("workers")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	restart, _ := cmd.Flags().GetBool("restart")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	if restart {
		if err := checkpoint.Reset(outputDir); err != nil {
			return fmt.Errorf("failed to reset run log: %w", err)
		}
	}

	runLog := checkpoint.Load(outputDir)
	if runLog.LastCompleted >= 0 {
		message.Info("Resuming run %s after phase %d (%s)", runLog.RunID, runLog.LastCompleted+1, recon.PhaseOrder[runLog.LastCompleted])
	}

	message.Banner()

	for idx, phase := range recon.PhaseOrder {
		if idx <= runLog.LastCompleted {
			message.Info("Skipping completed phase %d/%d: %s", idx+1, len(recon.PhaseOrder), phase)
			continue
		}

		module, ok := registry.GetModule(phase)
		if !ok {
			return fmt.Errorf("pipeline phase %q is not registered", phase)
		}

		message.Section("Phase %d/%d: %s", idx+1, len(recon.PhaseOrder), module.Metadata().Name)
		module.Run(
			cfg.WithArg("output", outputDir),
			cfg.WithArg("subscription", subscriptions),
			cfg.WithArg("workers", workers),
			cfg.WithArg("batch-size", batchSize),
		)
		if err := module.Error(); err != nil {
			return fmt.Errorf("phase %s failed: %w", phase, err)
		}

		runLog.LastCompleted = idx
		if err := checkpoint.Save(outputDir, runLog); err != nil {
			return err
		}
	}

	if err := collectFinalOutputs(outputDir); err != nil {
		return err
	}

	message.Success("Pipeline complete. Reports are in %s", filepath.Join(outputDir, finalOutputDir))
	return nil
}

// collectFinalOutputs copies the report artifacts into FINAL_OUTPUT/. The
// intermediate snapshots stay where they are so a later --restart-free run
// can still reuse them.
func collectFinalOutputs(outputDir string) error {
	dest := filepath.Join(outputDir, finalOutputDir)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	artifacts := []string{
		rbac.IdentitiesFile,
		rbac.RoleMatrixCSV,
		rbac.RoleMatrixJSON,
		rbac.UserMatrixCSV,
		rbac.UserMatrixJSON,
		rbac.RoleChartFile,
		rbac.UserChartFile,
	}

	for _, name := range artifacts {
		src := filepath.Join(outputDir, name)
		data, err := os.ReadFile(src)
		if os.IsNotExist(err) {
			message.Warning("Expected artifact %s was not produced", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src, err)
		}
		if err := os.WriteFile(filepath.Join(dest, name), data, 0644); err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}
	}

	return nil
}
