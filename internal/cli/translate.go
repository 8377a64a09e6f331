package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/distcache/pkg/dist"
	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/link"
	"github.com/matzehuels/distcache/pkg/translate"
)

// translateCommand creates the translate command.
func (c *CLI) translateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "translate <url-or-path>",
		Short: "Resolve one link into a cached distribution",
		Long: `Resolve a source archive (.tar.gz, .tgz, .tar.zst, .zip) or a prebuilt
egg into a distribution in the install cache. Prebuilt eggs are fetched
directly; source archives are unpacked, built and normalized.`,
		Example: `  distcache translate https://files.example/six-1.16.0.tar.gz
  distcache translate ./dist/six-1.16.0-py3.12.egg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := link.Parse(args[0])
			if err != nil {
				return err
			}
			chain, err := c.newChain()
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			res := chain.Translate(cmd.Context(), l)
			if err := resultError(l, res); err != nil {
				return err
			}
			prog.done("Resolved " + l.String())

			printDistribution(cmd.OutOrStdout(), res.Distribution())
			return nil
		},
	}
}

// resultError converts a non-resolved chain result into the error
// reported to the user.
func resultError(l *link.Link, res translate.Result) error {
	switch res.Outcome() {
	case translate.OutcomeResolved:
		return nil
	case translate.OutcomeFatal:
		return res.Err()
	default:
		return errors.New(errors.ErrCodeNoResolution, "no resolution found for %s", l)
	}
}

func printDistribution(w io.Writer, d *dist.Distribution) {
	printSuccess(w, "%s %s", StyleHighlight.Render(d.Name), d.Version)
	printKeyValue(w, "python", d.Python)
	printKeyValue(w, "platform", d.Platform)
	printFile(w, d.Location)
}
