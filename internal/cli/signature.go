package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"intentgate/internal/canonical"
	"intentgate/internal/signer/models"
	signerService "intentgate/internal/signer/service"
)

// SignatureResult is a signer result in its published string form.
type SignatureResult struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

func NewEncodeSignatureCommand(rootOpts *RootOptions) *cobra.Command {
	var payload string
	cmd := &cobra.Command{
		Use:   "encode-signature --payload <0x hash> <result.json|->",
		Short: "Validate a signer result and print it as secp256k1:<base58>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digest, err := canonical.ParseHash(payload)
			if err != nil {
				return rejected(err)
			}
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			var result models.SignResult
			if err := json.Unmarshal(data, &result); err != nil {
				return commandError("decode sign result", err)
			}

			sig, pub, err := signerService.Verify(digest, result)
			if err != nil {
				return rejected(err)
			}
			res := SignatureResult{Signature: sig, PublicKey: pub}
			return emit(cmd.OutOrStdout(), rootOpts.Format, res, res.Signature, res.PublicKey)
		},
	}
	cmd.Flags().StringVar(&payload, "payload", "", "the 0x-prefixed hash that was signed")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}
