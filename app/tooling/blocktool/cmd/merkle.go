package cmd

import (
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/hash"
	"github.com/ardanlabs/blockminer/foundation/blockchain/merkle"
	"github.com/spf13/cobra"
)

var showLevels bool

// merkleCmd represents the merkle command
var merkleCmd = &cobra.Command{
	Use:   "merkle <id>...",
	Short: "Print the merkle root of the identifiers in order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]hash.Hash, len(args))
		for i, arg := range args {
			id, err := hash.FromHex(arg)
			if err != nil {
				return fmt.Errorf("id[%d]: %w", i, err)
			}
			ids[i] = id
		}

		tree, err := merkle.NewTree(ids)
		if err != nil {
			return err
		}

		if showLevels {
			fmt.Fprint(cmd.OutOrStdout(), tree)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), tree.Root())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(merkleCmd)
	merkleCmd.Flags().BoolVarP(&showLevels, "levels", "l", false, "Print every level of the tree.")
}
