package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/HerbHall/plcbridge/internal/pipeline"
	"github.com/HerbHall/plcbridge/internal/sfc"
)

func newSFCCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sfc",
		Short: "Generate and package an SFC configuration",
		Long: `Reads the project export, generates the SFC sources, SiteWise target and
top-level configuration, and writes them with installer scripts and a zip
archive to <output-dir>/sfc/<project>. With --create-greengrass-installer a
Greengrass component recipe and deployment document are written as well.

Devices without a network address cannot be bound to a controller. They are
left out of the SFC configuration and listed as skipped, but still appear in
the output of the sitewise command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, closeFn, err := a.pipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := p.GenerateSFC(cmd.Context())
			if err != nil {
				return err
			}
			printSFCReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("region", "", "AWS region of the SiteWise target")
	f.String("credential-provider", "", "AWS_IOT_CERT or ENV_SESSION_CREDENTIALS")
	f.String("sfc-version", "", "SFC release the installers download")
	f.Bool("create-greengrass-installer", false, "also write a Greengrass recipe and deployment")
	f.String("thing-arn", "", "Greengrass core device the deployment targets")
	f.String("greengrass-comp-version", "", "version of the generated Greengrass component")
	f.String("iot-credential-endpoint", "", "IoT credential provider endpoint (AWS_IOT_CERT)")
	f.String("role-alias", "", "IoT role alias (AWS_IOT_CERT)")
	f.String("thing-name", "", "IoT thing name (AWS_IOT_CERT)")
	f.String("cert-file", "", "device certificate path (AWS_IOT_CERT)")
	f.String("private-key-file", "", "device private key path (AWS_IOT_CERT)")
	f.String("root-ca-file", "", "root CA path (AWS_IOT_CERT)")
	f.String("greengrass-path", sfc.DefaultGreengrassPath, "Greengrass root path (AWS_IOT_CERT)")
	return cmd
}

func printSFCReport(w io.Writer, r *pipeline.SFCReport) {
	fmt.Fprintf(w, "SFC configuration written to %s\n", r.Package.Dir)
	fmt.Fprintf(w, "  devices: %d, channels: %d, archive sha256: %s\n",
		len(r.Result.Sources), r.Result.Channels, r.Package.ZipSHA256)
	for _, name := range r.Result.Skipped {
		fmt.Fprintf(w, "  skipped %s: no network address\n", name)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, r.Package.Instructions())

	if r.Manifest == nil {
		return
	}
	fmt.Fprintf(w, "\nTo deploy with Greengrass run:\n\n")
	for _, c := range r.Manifest.Commands {
		fmt.Fprintf(w, "  %s\n", c)
	}
}
