// Package main implements the colmena CLI: suggestion cards, session
// management, device control and the terminal device monitor.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apiariosamano/colmena/internal/config"
	"github.com/apiariosamano/colmena/internal/session"
)

var (
	// serverURL is the base URL for the colmenad HTTP server
	serverURL string
	// configPath overrides the default config file location
	configPath string
	// version information
	version = "dev"
)

// errNoSession is returned by commands that need a stored token.
var errNoSession = errors.New("no session; run 'colmena login' first")

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "colmena",
	Short: "CLI for the apiary management console",
	Long: `colmena is a command-line interface for the apiary management console.
It extracts suggestion cards from AI analyses, manages the session token,
controls hive devices and shows a live device monitor.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9191", "colmenad server URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/colmena/config.yaml)")
	rootCmd.AddCommand(healthCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check colmenad server health",
	Long: `Check the health status of the colmenad HTTP server.

Examples:
  # Check health
  colmena health

  # Check health on a different server
  colmena health --server http://localhost:8080`,
	RunE: runHealth,
}

// HealthResponse matches internal/http HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	var health HealthResponse
	if err := newAPIClient("").do(cmd.Context(), http.MethodGet, "/health", nil, &health); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", health.Status)
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

func tokenStore() (*session.TokenStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Session.TokenFile == "" {
		return nil, errors.New("session.token_file is not configured")
	}
	return session.NewTokenStore(cfg.Session.TokenFile), nil
}

// storedToken returns the saved session token.
func storedToken() (string, error) {
	store, err := tokenStore()
	if err != nil {
		return "", err
	}
	token, err := store.Load()
	if errors.Is(err, session.ErrNoToken) {
		return "", errNoSession
	}
	return token, err
}

// authedClient returns an API client carrying the stored token.
func authedClient() (*apiClient, error) {
	token, err := storedToken()
	if err != nil {
		return nil, err
	}
	return newAPIClient(token), nil
}

// apiClient calls colmenad.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(serverURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// errorResponse is echo's default error body.
type errorResponse struct {
	Message string `json:"message"`
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("server error (status %d): %s", resp.StatusCode, e.Message)
		}
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
