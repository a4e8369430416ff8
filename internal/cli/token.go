package cli

import (
	"time"

	"github.com/spf13/cobra"

	jwttoken "intentgate/internal/jwt_token"
)

type TokenResult struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		sub    string
		key    string
		issuer string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token --sub <account> --key <secret>",
		Short: "Mint a development caller token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := jwttoken.NewJWTService(key, issuer, jwttoken.DefaultAudience)
			token, err := svc.GenerateToken(sub, ttl)
			if err != nil {
				return rejected(err)
			}
			res := TokenResult{Token: token, Subject: sub, ExpiresAt: time.Now().Add(ttl).UTC().Truncate(time.Second)}
			return emit(cmd.OutOrStdout(), rootOpts.Format, res, res.Token)
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "caller account id")
	cmd.Flags().StringVar(&key, "key", "", "HMAC signing key (JWT_SIGNING_KEY)")
	cmd.Flags().StringVar(&issuer, "issuer", "intentgate", "token issuer (JWT_ISSUER)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
