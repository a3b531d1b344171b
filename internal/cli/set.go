package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// SetOptions holds flags for the set command.
type SetOptions struct {
	Raw bool
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	setOpts := &SetOptions{}
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Long: `Store a value under a key.

The value must be a JSON document unless --raw is given, so records written
here decode with the default JSON codec.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, rootOpts, setOpts, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&setOpts.Raw, "raw", false, "store the value bytes as given")
	return cmd
}

func runSet(cmd *cobra.Command, opts *RootOptions, setOpts *SetOptions, key, value string) error {
	data := []byte(value)
	if !setOpts.Raw && !json.Valid(data) {
		return fmt.Errorf("%s: value is not valid JSON (use --raw to store it anyway)", key)
	}

	s, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Set(cmd.Context(), key, data); err != nil {
		return err
	}
	return report(cmd, opts, Result{Status: "stored", Key: key})
}

func report(cmd *cobra.Command, opts *RootOptions, result Result) error {
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", result.Status, result.Key)
	return err
}
