package cmd

import (
	"github.com/spf13/cobra"

	"github.com/PrimitiveContext/AzureEnumRBAC/internal/message"
	"github.com/PrimitiveContext/AzureEnumRBAC/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of AzureEnumRBAC",
	Long:  `All software has versions. This is AzureEnumRBAC's`,
	Run: func(cmd *cobra.Command, args []string) {
		message.Info(version.FullVersion())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
