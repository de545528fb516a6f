package cmd

import (
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/header"
	"github.com/ardanlabs/blockminer/foundation/blockchain/pow"
	"github.com/ardanlabs/blockminer/foundation/blockchain/report"
	"github.com/holiman/uint256"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var targetHex string

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <report>",
	Short: "Verify a mined block report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rpt, err := report.Read(afero.NewOsFs(), args[0])
		if err != nil {
			return err
		}

		var target *uint256.Int
		switch targetHex {
		case "":
			target, err = header.CompactToTarget(rpt.Header.Bits)
		default:
			target, err = pow.ParseTarget(targetHex)
		}
		if err != nil {
			return err
		}

		if err := report.Verify(rpt, target); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK hash[%s] nonce[%d] txs[%d]\n", rpt.Header.Hash(), rpt.Header.Nonce, len(rpt.TxIDs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&targetHex, "target", "t", "0000ffff00000000000000000000000000000000000000000000000000000000", "Target as 64 hex characters, empty to use the header bits.")
}
