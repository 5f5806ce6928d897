/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/matchday/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	Long:  "Issue an HS256 bearer token signed with MATCHDAY_JWT_SIGNING_KEY",
	RunE:  runToken,
}

var (
	tokenSubject string
	tokenRoles   []string
	tokenTTL     time.Duration
)

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject (required)")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", []string{auth.RoleViewer}, "Roles to grant (viewer, planner)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	tokenCmd.MarkFlagRequired("subject")
}

func runToken(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if !cfg.AuthEnabled() {
		return errors.New("MATCHDAY_JWT_SIGNING_KEY is not set")
	}
	for _, role := range tokenRoles {
		if role != auth.RoleViewer && role != auth.RolePlanner {
			return fmt.Errorf("unknown role %q", role)
		}
	}

	token, err := auth.Issue([]byte(cfg.JWTSigningKey), tokenSubject, tokenRoles, tokenTTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
