package cli

import (
	"cmp"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/talkdb/internal/names"
	"github.com/roach88/talkdb/internal/pathres"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Resolver string
}

// ResolveResult is the output of the resolve command.
type ResolveResult struct {
	Virtual  string `json:"virtual"`
	Resolved string `json:"resolved"`
	Path     string `json:"path"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <virtual-path>",
		Short: "Show where a logical store name lives on disk",
		Long: `Map a logical store name such as "user/42/channel/1000" to the
relative file path the configured resolver produces, and to the full path
under the data directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Resolver, "resolver", "", "resolver policy (identity|sha1|sharded); defaults to config")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *ResolveOptions, virtual string) error {
	f := opts.formatter(cmd)

	name := opts.Resolver
	if name == "" {
		name = opts.Config.Resolver
	}
	resolver, err := pathres.ByName(name)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid resolver", err)
	}

	virtual = names.Normalize(virtual)
	resolved := resolver.Resolve(virtual)
	result := ResolveResult{
		Virtual:  virtual,
		Resolved: resolved,
		Path:     filepath.Join(opts.Config.DataDir, resolved),
	}
	f.VerboseLog("resolver: %s", cmp.Or(name, pathres.NameSharded))

	if f.Format == "json" {
		return f.Success(result)
	}
	return f.Success(result.Path)
}
