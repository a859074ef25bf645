package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	requestsModel  string
	requestsAfter  string
	requestsBefore string
	requestsStatus string
)

// requestsCmd lists pending state or a model's update history
var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List pending models or a model's update history",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, store, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		if requestsModel == "" {
			pending, err := eng.PendingModels(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Pending models: %d\n", len(pending.Models))
			for _, m := range pending.Models {
				fmt.Printf("  %s (%s) owner=%s\n", m.Name, m.ID, m.OwnerEmail)
			}
			fmt.Printf("Pending requests: %d\n", len(pending.Requests))
			for _, r := range pending.Requests {
				fmt.Printf("  %s model=%s requester=%s\n", r.ID, r.ModelID, r.RequesterEmail)
			}
			return nil
		}

		updates, err := eng.UpdateHistory(cmd.Context(), requestsModel, requestsAfter, requestsBefore, requestsStatus)
		if err != nil {
			return err
		}
		fmt.Printf("Updates for %s: %d\n", requestsModel, len(updates))
		for _, u := range updates {
			fmt.Printf("  %s [%s] by %s at %s\n", u.ID, u.Status, u.RequesterEmail, u.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	requestsCmd.Flags().StringVar(&requestsModel, "model", "", "model name or ID (omit to list all pending)")
	requestsCmd.Flags().StringVar(&requestsAfter, "after", "", "only updates on or after this date (YYYY-MM-DD)")
	requestsCmd.Flags().StringVar(&requestsBefore, "before", "", "only updates on or before this date (YYYY-MM-DD)")
	requestsCmd.Flags().StringVar(&requestsStatus, "status", "", "filter by status (pending, approved, rejected)")
}
