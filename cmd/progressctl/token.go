package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fadilmartias/mentor-progress/internal/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	user   string
	role   string
	secret string
	ttl    time.Duration
	issuer string
}

func newTokenCmd() *cobra.Command {
	opts := &tokenOptions{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Long:  "Sign a token for the progress API with JWT_SECRET (or --secret). Intended for local testing only.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.user, "user", "", "User UUID (random when empty)")
	cmd.Flags().StringVar(&opts.role, "role", string(session.RoleCandidate), "candidate, mentor or admin")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "Signing secret (overrides JWT_SECRET env var)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "Token lifetime")
	cmd.Flags().StringVar(&opts.issuer, "issuer", "mentor-platform", "Token issuer")
	return cmd
}

func runToken(cmd *cobra.Command, opts *tokenOptions) error {
	secret := opts.secret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		return fmt.Errorf("secret is required (set JWT_SECRET environment variable or use --secret flag)")
	}

	role, err := session.ParseRole(opts.role)
	if err != nil {
		return err
	}

	userID := uuid.New()
	if opts.user != "" {
		userID, err = uuid.Parse(opts.user)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
	}

	authority, err := session.NewAuthority(secret, opts.ttl, opts.issuer)
	if err != nil {
		return err
	}
	token, err := authority.Issue(userID, role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
