package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the fundtrader CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fundtrader version %s\n", version)
		fmt.Println("TEFAS fund tracker and strategy simulator")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
