package cmd

import (
	"github.com/spf13/cobra"
)

var flagIngredient string

var orangebookCmd = &cobra.Command{
	Use:   "orangebook",
	Short: "Query the FDA Orange Book",
}

var orangebookApplCmd = &cobra.Command{
	Use:   "appl <number>",
	Short: "Patent, product, exclusivity and Purple Book rows of an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		bundle, err := cl.orangebook.ByApplicationNumber(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), bundle)
	},
}

var orangebookNDCCmd = &cobra.Command{
	Use:   "ndc <ndc>",
	Short: "Same as appl, resolving the application from a National Drug Code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		bundle, err := cl.orangebook.ByNDC(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), bundle)
	},
}

var orangebookProductsCmd = &cobra.Command{
	Use:   "products --ingredient <name>",
	Short: "Products of an active ingredient",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		products, err := cl.orangebook.ProductsByIngredient(cmd.Context(), flagIngredient)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), products)
	},
}

func init() {
	orangebookProductsCmd.Flags().StringVar(&flagIngredient, "ingredient", "", "active ingredient, case-insensitive")
	_ = orangebookProductsCmd.MarkFlagRequired("ingredient")

	orangebookCmd.AddCommand(orangebookApplCmd)
	orangebookCmd.AddCommand(orangebookNDCCmd)
	orangebookCmd.AddCommand(orangebookProductsCmd)
}
