package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/slidesync/internal/manifest"
)

func newManifestCommand() *cobra.Command {
	var check string

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Print the plugin manifest",
		Long: `Print the embedded plugin manifest.

With --check the manifest is instead verified against a host version;
the command fails when the host is older than minAppVersion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := manifest.Load()
			if err != nil {
				return err
			}

			if check == "" {
				_, err = cmd.OutOrStdout().Write(manifest.Raw())
				return err
			}

			if err := m.CompatibleWith(check); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s is compatible with host %s\n", m.ID, m.Version, check)

			return err
		},
	}

	cmd.Flags().StringVar(&check, "check", "", "host version to check compatibility against")

	return cmd
}
