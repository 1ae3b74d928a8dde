package http_test

import (
	"context"
	"fmt"
	"time"

	"github.com/apiariosamano/colmena/internal/advisor"
	"github.com/apiariosamano/colmena/internal/backend"
	"github.com/apiariosamano/colmena/internal/config"
	httpserver "github.com/apiariosamano/colmena/internal/http"
	"github.com/apiariosamano/colmena/internal/inventory"
	"github.com/apiariosamano/colmena/internal/logging"
)

// ExampleServer demonstrates how to wire the server over the backend
// services and start it.
func ExampleServer() {
	logger := logging.NewNop()
	cfg := config.Default()

	services, err := backend.New(cfg.Services, cfg.Client, logger)
	if err != nil {
		panic(err)
	}
	adv, err := advisor.New(services.IAApiarios, services.IAProduccion, advisor.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	inv, err := inventory.FromServices(services, logger)
	if err != nil {
		panic(err)
	}

	server, err := httpserver.NewServer(httpserver.Deps{
		Advisor:   adv,
		Inventory: inv,
		Devices:   services.Apiarios,
	}, logger, &httpserver.Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		panic(err)
	}

	// Start server in background
	go func() {
		_ = server.Start()
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		fmt.Println("shutdown error:", err)
	}

	fmt.Println("Server started and stopped successfully")
	// Output: Server started and stopped successfully
}
