// Package cli implements intentctl, the offline companion to the proxy: it computes
// canonical hashes, previews signer calls and mints development tokens.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the intentctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "intentctl",
		Short: "Offline tools for the intent signing proxy",
		Long:  "Compute canonical intent hashes, preview signer requests and mint caller tokens without a running proxy.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewHashCommand(opts))
	cmd.AddCommand(NewSignRequestCommand(opts))
	cmd.AddCommand(NewEncodeSignatureCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
