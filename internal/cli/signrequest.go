package cli

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"intentgate/internal/canonical"
	"intentgate/internal/intents"
	signerClient "intentgate/internal/signer/client"
	"intentgate/internal/signer/models"
)

// SignRequestResult is the outbound request the proxy would send for a batch.
type SignRequestResult struct {
	Hash   string                  `json:"hash"`
	Method string                  `json:"method"`
	Params signerClient.SignParams `json:"params"`
}

func NewSignRequestCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		path       string
		receiver   string
		keyVersion uint32
		requestID  string
	)
	cmd := &cobra.Command{
		Use:   "sign-request --path <account> <file|->",
		Short: "Print the signer call the proxy would issue for a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.New()
			if requestID != "" {
				parsed, err := uuid.Parse(requestID)
				if err != nil {
					return commandError("invalid --request-id", err)
				}
				id = parsed
			}

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			batch, err := intents.Decode(data)
			if err != nil {
				return rejected(err)
			}
			digest, err := canonical.Hash(batch)
			if err != nil {
				return rejected(err)
			}

			call := models.Call{
				RequestID: id,
				Receiver:  receiver,
				Args: models.SignArgs{Request: models.SignRequest{
					Payload:    digest,
					Path:       path,
					KeyVersion: keyVersion,
				}},
				Deposit: models.DefaultDeposit,
				Gas:     models.DefaultGas,
			}
			res := SignRequestResult{
				Hash:   digest.Hex(),
				Method: signerClient.MethodCallFunction,
				Params: signerClient.NewSignParams(call),
			}
			body, err := json.Marshal(res.Params)
			if err != nil {
				return commandError("encode params", err)
			}
			return emit(cmd.OutOrStdout(), rootOpts.Format, res, res.Hash, string(body))
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "derivation path, the account being signed for")
	cmd.Flags().StringVar(&receiver, "receiver", "v1.signer", "signer service account")
	cmd.Flags().Uint32Var(&keyVersion, "key-version", models.DefaultKeyVersion, "signer key version")
	cmd.Flags().StringVar(&requestID, "request-id", "", "callback id (random when empty)")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
