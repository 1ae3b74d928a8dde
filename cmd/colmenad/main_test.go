package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiariosamano/colmena/internal/config"
	"github.com/apiariosamano/colmena/internal/logging"
)

func TestMainIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("COLMENA_SERVER_PORT", "18084")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, "")
	}()

	// Wait for server to start
	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://127.0.0.1:18084/health")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 2*time.Second, 50*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shutdown in time")
	}
}

func TestInitDependencies(t *testing.T) {
	cfg := config.Default()

	deps, err := initDependencies(cfg, logging.NewNop())
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.services)
	assert.NotNil(t, deps.advisor)
	assert.NotNil(t, deps.inventory)
	assert.NotNil(t, deps.registry)
	assert.Nil(t, deps.localModel)
	assert.Nil(t, deps.natsConn)
	assert.Nil(t, deps.sink)
}

func TestInitDependenciesLocalModel(t *testing.T) {
	cfg := config.Default()
	cfg.Advisor.LocalModel = "llama3.2"
	cfg.Advisor.OllamaURL = "http://127.0.0.1:11434"

	deps, err := initDependencies(cfg, logging.NewNop())
	require.NoError(t, err)
	defer deps.Close()

	require.NotNil(t, deps.localModel)
	assert.Equal(t, "llama3.2", deps.localModel.Name())
}

func TestInitDependenciesNATS(t *testing.T) {
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := natsserver.NewServer(opts)
	require.NoError(t, err)
	go ns.Start()
	t.Cleanup(ns.Shutdown)
	require.True(t, ns.ReadyForConnections(5*time.Second), "NATS server not ready")

	cfg := config.Default()
	cfg.NATS.URL = ns.ClientURL()

	deps, err := initDependencies(cfg, logging.NewNop())
	require.NoError(t, err)
	defer deps.Close()

	require.NotNil(t, deps.natsConn)
	assert.True(t, deps.natsConn.IsConnected())
	assert.NotNil(t, deps.sink)
}
