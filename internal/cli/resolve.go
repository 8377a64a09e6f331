package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/distcache/pkg/errors"
	"github.com/matzehuels/distcache/pkg/translate"
)

type resolveOptions struct {
	version string
	refresh bool
	noCache bool
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var opts resolveOptions

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve a package from the index",
		Long: `Query the package index for a project's release files and translate the
candidates in order, prebuilt eggs first, until one resolves. A fatal
failure on any candidate stops the search.`,
		Example: `  distcache resolve six
  distcache resolve six --version 1.16.0 --refresh`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.version, "version", "", "release version (default: latest)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached index responses")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the index response cache")

	return cmd
}

func (c *CLI) runResolve(cmd *cobra.Command, name string, opts resolveOptions) error {
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	links, err := c.newIndex(opts.noCache).Links(ctx, name, opts.version, opts.refresh)
	if err != nil {
		return err
	}
	target := name
	if opts.version != "" {
		target += " " + opts.version
	}
	if len(links) == 0 {
		return errors.New(errors.ErrCodeNoResolution, "no candidate links for %s", target)
	}
	c.Logger.Debug("candidates", "name", name, "count", len(links))

	chain, err := c.newChain()
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	for _, l := range links {
		res := chain.Translate(ctx, l)
		switch res.Outcome() {
		case translate.OutcomeResolved:
			prog.done("Resolved " + l.String())
			printDistribution(w, res.Distribution())
			return nil
		case translate.OutcomeFatal:
			return res.Err()
		}
		printInfo(w, "Skipped %s", StyleDim.Render(l.Filename()))
	}
	return errors.New(errors.ErrCodeNoResolution, "no resolution found for %s", target)
}
