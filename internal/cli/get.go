package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the record stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, rootOpts, args[0])
		},
	}
}

func runGet(cmd *cobra.Command, opts *RootOptions, key string) error {
	s, err := opts.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	data, ok, err := s.Get(cmd.Context(), key)
	if err != nil {
		return err
	}
	record := newRecord(key, data, ok)
	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), record)
	}
	if !ok {
		return fmt.Errorf("%s: no stored value", key)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
