package cmd

import (
	"fmt"

	"github.com/ardanlabs/blockminer/foundation/blockchain/coinbase"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var keyPath string

// genkeyCmd represents the genkey command
var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate a new miner key",
	RunE: func(cmd *cobra.Command, args []string) error {
		privateKey, err := coinbase.GenerateKey(keyPath)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(genkeyCmd)
	genkeyCmd.Flags().StringVarP(&keyPath, "key", "k", "zblock/miner.ecdsa", "Path to write the private key.")
}
