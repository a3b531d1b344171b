// Package cli implements persistctl, a small tool for inspecting and editing
// the records kept by persisted bindings.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/goliatone/go-persisted/store"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Driver     string
	Path       string
	Prefix     string
	RedisAddr  string
	Format     string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the persistctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "persistctl",
		Short: "Inspect and edit persisted preference records",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "YAML store configuration file")
	flags.StringVar(&opts.Driver, "driver", "", "store driver (memory|file|badger|sqlite|redis)")
	flags.StringVar(&opts.Path, "path", "", "file, directory or database path for the store")
	flags.StringVar(&opts.Prefix, "prefix", "", "key prefix applied to every operation")
	flags.StringVar(&opts.RedisAddr, "redis-addr", "", "redis address for the redis driver")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewSetCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}

// storeConfig merges the config file, environment and flags, in that order
// of increasing precedence.
func (o *RootOptions) storeConfig() (store.Config, error) {
	cfg, err := store.LoadConfig(o.ConfigPath)
	if err != nil {
		return store.Config{}, err
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.Path != "" {
		cfg.Path = o.Path
	}
	if o.Prefix != "" {
		cfg.Prefix = o.Prefix
	}
	if o.RedisAddr != "" {
		cfg.Redis.Addr = o.RedisAddr
	}
	return cfg, nil
}

func (o *RootOptions) openStore(ctx context.Context) (store.Store, error) {
	cfg, err := o.storeConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg)
}
