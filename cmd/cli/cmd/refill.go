package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	refillAdmin   string
	refillOwner   string
	refillBalance string
)

// refillCmd sets a user's token balance to an absolute value
var refillCmd = &cobra.Command{
	Use:   "refill",
	Short: "Refill a user's token balance (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		balance, err := decimal.NewFromString(refillBalance)
		if err != nil {
			return fmt.Errorf("balance must be a decimal number: %w", err)
		}

		eng, store, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := eng.Refill(cmd.Context(), refillAdmin, refillOwner, balance); err != nil {
			return err
		}

		fmt.Printf("Set balance of %s to %s tokens\n", refillOwner, balance.String())
		return nil
	},
}

func init() {
	refillCmd.Flags().StringVar(&refillAdmin, "admin", "", "admin email (required)")
	refillCmd.Flags().StringVar(&refillOwner, "owner", "", "target user email (required)")
	refillCmd.Flags().StringVar(&refillBalance, "balance", "", "new balance (required)")
	refillCmd.MarkFlagRequired("admin")
	refillCmd.MarkFlagRequired("owner")
	refillCmd.MarkFlagRequired("balance")
}
