package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ardanlabs/blockminer/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockminer/foundation/blockchain/policy"
	"github.com/spf13/cobra"
)

// txidCmd represents the txid command
var txidCmd = &cobra.Command{
	Use:   "txid <file>...",
	Short: "Print the identifier and policy verdict of pool files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := policy.Retrieve(policyName)
		if err != nil {
			return err
		}

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			t, err := mempool.Decode(filepath.Base(path), data)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), err)
				continue
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", t.ID(), policy.Check(t, p), filepath.Base(path))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(txidCmd)
}
