package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tokengraph/adapters/modelspec"
	"tokengraph/core/engine"
)

var createOwner string

// createCmd creates a model from an HCL definition file
var createCmd = &cobra.Command{
	Use:   "create <definition.hcl>",
	Short: "Create a graph model from an HCL definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := modelspec.LoadFile(args[0])
		if err != nil {
			return err
		}

		eng, store, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		model, cost, err := eng.CreateModel(cmd.Context(), engine.CreateModelInput{
			Name:       def.Name,
			OwnerEmail: createOwner,
			NodeCount:  def.NodeCount,
			Edges:      def.Edges,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created model %s (%s)\n", model.Name, model.ID)
		fmt.Printf("  nodes: %d, edges: %d\n", model.NodeCount, model.EdgeCount())
		fmt.Printf("  cost:  %s tokens\n", cost.String())
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createOwner, "owner", "", "owner email (required)")
	createCmd.MarkFlagRequired("owner")
}
