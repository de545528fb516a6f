// Package cmd contains the blocktool commands.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var policyName string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "blocktool",
	Short: "Inspect pool transactions and mined block reports",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&policyName, "policy", "p", "default", "Name of the policy to check transactions against.")
}
