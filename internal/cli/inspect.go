package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/distcache/pkg/dist"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show a distribution's metadata and digest",
		Long:  `Read the metadata of an .egg archive or unpacked egg directory and print its identity and BLAKE3 content digest.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dist.Read(args[0])
			if err != nil {
				return err
			}
			digest, err := dist.Digest(d.Location)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printDistribution(w, d)
			printKeyValue(w, "digest", digest)
			return nil
		},
	}
}
