package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/plcbridge/internal/pipeline"
	"github.com/HerbHall/plcbridge/pkg/models"
)

func newInspectCmd(a *app) *cobra.Command {
	var devices []string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the canonical device and tag model of the export as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, _, err := pipeline.New(a.cfg, a.logger).Inventory()
			if err != nil {
				return err
			}
			if len(devices) > 0 {
				selected := models.NewInventory()
				for _, name := range devices {
					d, ok := inv.Devices[name]
					if !ok {
						return fmt.Errorf("device %q not in export", name)
					}
					selected.Add(d)
				}
				inv = selected
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(inv); err != nil {
				return fmt.Errorf("encode inventory: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringSliceVar(&devices, "device", nil, "only print these devices")
	return cmd
}
