package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/logging"
	"github.com/apiariosamano/colmena/internal/session"
)

var (
	loginEmail    string
	loginPassword string
)

func init() {
	sessionCmd.AddCommand(sessionDecodeCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	rootCmd.AddCommand(sessionCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (read from stdin when empty)")
	_ = loginCmd.MarkFlagRequired("email")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// sessionCmd is the parent command for token inspection
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect session tokens",
}

var sessionDecodeCmd = &cobra.Command{
	Use:   "decode [token]",
	Short: "Decode a session token without verifying it",
	Long: `Decode the payload of a session token and print the user it describes.
The signature is not verified.

Examples:
  colmena session decode eyJhbGciOi...
  pbpaste | colmena session decode -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionDecode,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored session",
	RunE:  runSessionShow,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	Long: `Authenticate against the auth service and store the returned token in
the session token file (0600).

Examples:
  colmena login --email ana@apiarios.mx
  echo "$PASSWORD" | colmena login --email ana@apiarios.mx`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	RunE:  runLogout,
}

func runSessionDecode(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 && args[0] != "-" {
		token = args[0]
	} else {
		in, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		token = string(in)
	}
	claims, err := session.Decode(token)
	if err != nil {
		return err
	}
	printClaims(cmd.OutOrStdout(), claims, time.Now())
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	store, err := tokenStore()
	if err != nil {
		return err
	}
	claims, err := store.Claims()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Archivo:    %s\n", store.Path())
	printClaims(cmd.OutOrStdout(), claims, time.Now())
	return nil
}

func printClaims(w io.Writer, c session.Claims, now time.Time) {
	fmt.Fprintf(w, "Usuario:    %s\n", c.UserID)
	fmt.Fprintf(w, "Nombre:     %s\n", c.FullName())
	fmt.Fprintf(w, "Email:      %s\n", c.Email)
	fmt.Fprintf(w, "Rol:        %s\n", c.Role)
	fmt.Fprintf(w, "Operador:   %t\n", c.IsOperator())
	switch {
	case c.ExpiresAt.IsZero():
		fmt.Fprintf(w, "Expira:     nunca\n")
	case c.Expired(now):
		fmt.Fprintf(w, "Expira:     %s (expirado)\n", c.ExpiresAt.Local().Format(time.RFC3339))
	default:
		fmt.Fprintf(w, "Expira:     %s\n", c.ExpiresAt.Local().Format(time.RFC3339))
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	password := loginPassword
	if password == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	services, err := backend.New(cfg.Services, cfg.Client, logging.NewNop())
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	token, err := services.Auth.Login(ctx, backend.LoginRequest{Email: loginEmail, Contrasena: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	store, err := tokenStore()
	if err != nil {
		return err
	}
	if err := store.Save(token); err != nil {
		return err
	}
	claims, err := session.Decode(token)
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Sesión iniciada como %s\n", claims.FullName())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Sesión iniciada")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := tokenStore()
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada")
	return nil
}
