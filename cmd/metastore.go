package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagTitle            string
	flagKeyword          string
	flagDescription      string
	flagURL              string
	flagFromDistribution bool
	flagDistributions    bool
)

var metastoreCmd = &cobra.Command{
	Use:   "metastore",
	Short: "Query the dataset metastore",
}

var metastoreSchemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List schema names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		schemas, err := cl.metastore.ListSchemas(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), schemas)
	},
}

var metastoreItemsCmd = &cobra.Command{
	Use:   "items <schema>",
	Short: "List every item of a schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		items, err := cl.metastore.ListItems(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), items)
	},
}

var metastoreItemCmd = &cobra.Command{
	Use:   "item <schema> <id>",
	Short: "Show one item of a schema",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		item, err := cl.metastore.GetItem(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), item)
	},
}

// searchField returns the one search flag that was set
func searchField(fields map[string]string) (string, string, error) {
	var name, value string
	for n, v := range fields {
		if v == "" {
			continue
		}
		if name != "" {
			return "", "", fmt.Errorf("only one of --title, --keyword, --description or --url can be given")
		}
		name, value = n, v
	}
	if name == "" {
		return "", "", fmt.Errorf("one of --title, --keyword, --description or --url is required")
	}
	return name, value, nil
}

var metastoreSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find datasets (or distributions with --distributions) by exact field value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		field, value, err := searchField(map[string]string{
			"title":       flagTitle,
			"keyword":     flagKeyword,
			"description": flagDescription,
			"url":         flagURL,
		})
		if err != nil {
			return err
		}
		if flagDistributions && field != "url" {
			return fmt.Errorf("--distributions only works with --url")
		}

		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		ctx := cmd.Context()
		var result any
		switch {
		case flagDistributions:
			result, err = cl.metastore.DistributionsByDownloadURL(ctx, value)
		case field == "title":
			result, err = cl.metastore.DatasetsByTitle(ctx, value)
		case field == "keyword":
			result, err = cl.metastore.DatasetsByKeyword(ctx, value)
		case field == "description":
			result, err = cl.metastore.DatasetsByDescription(ctx, value)
		default:
			result, err = cl.metastore.DatasetsByDownloadURL(ctx, value)
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

var metastoreURLsCmd = &cobra.Command{
	Use:   "urls",
	Short: "List the download URL of every dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		urls, err := cl.metastore.AllDatasetURLs(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), urls)
	},
}

var metastoreConvertCmd = &cobra.Command{
	Use:   "convert <id>",
	Short: "Convert a dataset id to its distribution id (or the reverse with --from-distribution)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cl, err := buildClients(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cl.Close()

		var id string
		if flagFromDistribution {
			id, err = cl.metastore.DistributionToDatasetID(cmd.Context(), args[0])
		} else {
			id, err = cl.metastore.DatasetToDistributionID(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	metastoreSearchCmd.Flags().StringVar(&flagTitle, "title", "", "exact title, case-insensitive")
	metastoreSearchCmd.Flags().StringVar(&flagKeyword, "keyword", "", "exact keyword, case-insensitive")
	metastoreSearchCmd.Flags().StringVar(&flagDescription, "description", "", "exact description, case-insensitive")
	metastoreSearchCmd.Flags().StringVar(&flagURL, "url", "", "download URL")
	metastoreSearchCmd.Flags().BoolVar(&flagDistributions, "distributions", false, "return distributions instead of datasets (with --url)")

	metastoreConvertCmd.Flags().BoolVar(&flagFromDistribution, "from-distribution", false, "the id is a distribution id")

	metastoreCmd.AddCommand(metastoreSchemasCmd)
	metastoreCmd.AddCommand(metastoreItemsCmd)
	metastoreCmd.AddCommand(metastoreItemCmd)
	metastoreCmd.AddCommand(metastoreSearchCmd)
	metastoreCmd.AddCommand(metastoreURLsCmd)
	metastoreCmd.AddCommand(metastoreConvertCmd)
}
