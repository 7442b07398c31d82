package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSiteWiseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitewise",
		Short: "Generate a SiteWise bulk-import document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, closeFn, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := p.GenerateSiteWise(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "SiteWise bulk import written to %s (%d asset models, %d assets, %d properties)\n",
				report.Path, report.Summary.AssetModels, report.Summary.Assets, report.Summary.Properties)
			return nil
		},
	}
	cmd.Flags().String("top-hierarchy-asset", "", "root asset every device is placed below, empty for none")
	cmd.Flags().String("append-to", "", "existing bulk-import document to extend")
	return cmd
}
