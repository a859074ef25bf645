package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	executeUser  string
	executeModel string
	executeStart string
	executeGoal  string
)

// executeCmd runs a billed shortest-path query on a model
var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run a shortest-path query on a model",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, store, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := eng.ExecuteModel(cmd.Context(), executeModel, executeStart, executeGoal, executeUser)
		if err != nil {
			return err
		}

		fmt.Printf("Path:   %s\n", strings.Join(result.Path, " -> "))
		fmt.Printf("Weight: %v\n", result.PathWeight)
		fmt.Printf("Cost:   %s tokens\n", result.TokenCost.String())
		fmt.Printf("Time:   %dms\n", result.ExecutionTimeMs)
		return nil
	},
}

func init() {
	executeCmd.Flags().StringVar(&executeUser, "user", "", "requester email (required)")
	executeCmd.Flags().StringVar(&executeModel, "model", "", "model name or ID (required)")
	executeCmd.Flags().StringVar(&executeStart, "start", "", "start node (required)")
	executeCmd.Flags().StringVar(&executeGoal, "goal", "", "goal node (required)")
	executeCmd.MarkFlagRequired("user")
	executeCmd.MarkFlagRequired("model")
	executeCmd.MarkFlagRequired("start")
	executeCmd.MarkFlagRequired("goal")
}
