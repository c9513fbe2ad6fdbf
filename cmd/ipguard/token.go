package main

import (
	"errors"
	"fmt"

	"github.com/NeuralTrust/IPGuard/pkg/infra/auth/jwt"
	"github.com/spf13/cobra"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin API token signed with server.secret_key",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server.SecretKey == "" {
			return errors.New("server.secret_key is not configured")
		}
		token, err := jwt.NewJwtManager(cfg.Server.SecretKey, cfg.Server.TokenTTL).CreateToken(tokenSubject)
		if err != nil {
			return fmt.Errorf("create token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "operator name recorded as the actor of admin actions")
}
