package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/sheetlens/internal/config"
	"github.com/templui/sheetlens/internal/model"
	"github.com/templui/sheetlens/internal/service"
	"github.com/templui/sheetlens/internal/validation"
)

func TokenCmd() *cobra.Command {
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id> <email>",
		Short: "Mint a development JWT signed with JWT_SECRET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if expiry <= 0 {
				expiry = cfg.JWTExpiry
			}
			auth := service.NewAuthService(cfg.JWTSecret, expiry, cfg.IsProduction())
			return mintToken(cmd.OutOrStdout(), auth, args[0], args[1])
		},
	}

	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (default JWT_EXPIRY)")
	return cmd
}

func mintToken(w io.Writer, auth *service.AuthService, userID, email string) error {
	if err := validation.ValidateEmail(email); err != nil {
		return err
	}

	token, err := auth.GenerateJWT(model.Identity{UserID: userID, Email: email})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, token)
	return err
}
