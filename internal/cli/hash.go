package cli

import (
	"github.com/spf13/cobra"

	"intentgate/internal/canonical"
	"intentgate/internal/intents"
)

// HashResult is the json output of hash.
type HashResult struct {
	Hash      string `json:"hash"`
	Canonical string `json:"canonical,omitempty"`
}

func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	var showJSON bool
	cmd := &cobra.Command{
		Use:   "hash <file|->",
		Short: "Print the canonical hash of an intent batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			batch, err := intents.Decode(data)
			if err != nil {
				return rejected(err)
			}
			msg, err := canonical.Marshal(batch)
			if err != nil {
				return rejected(err)
			}
			digest := canonical.HashMessage(msg)

			res := HashResult{Hash: digest.Hex()}
			var lines []string
			if showJSON {
				res.Canonical = string(msg)
				lines = append(lines, res.Canonical)
			}
			lines = append(lines, res.Hash)
			return emit(cmd.OutOrStdout(), rootOpts.Format, res, lines...)
		},
	}
	cmd.Flags().BoolVar(&showJSON, "json", false, "also print the canonical JSON that is hashed")
	return cmd
}
