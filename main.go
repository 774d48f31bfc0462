package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"peoplesync-client/internal/api"
	"peoplesync-client/internal/config"
	"peoplesync-client/internal/debughttp"
	"peoplesync-client/internal/session"
	"peoplesync-client/internal/subscription"
	"peoplesync-client/internal/ws"
)

func main() {
	cfg, err := config.Load(getEnv("PEOPLESYNC_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.AuthToken == "" {
		log.Fatal("no auth token configured; set auth_token or PEOPLESYNC_AUTH_TOKEN")
	}

	apiClient := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout())
	apiClient.SetToken(cfg.AuthToken)

	dialer := ws.NewDialer(cfg.AuthToken)
	manager := subscription.NewManager(dialer, cfg.WSEndpoint)
	sess := session.New(apiClient, apiClient, apiClient, apiClient, manager)

	dialer.OnMessage(sess.HandleEvent)
	dialer.OnReconnect(manager.Rejoin)

	ctx := context.Background()
	if err := sess.Bootstrap(ctx); err != nil {
		log.Fatalf("failed to bootstrap session: %v", err)
	}

	router := gin.Default()
	router.Use(gin.Recovery())
	debughttp.RegisterRoutes(router, sess, cfg.DebugEnabled)

	go func() {
		if err := router.Run(cfg.DebugAddr); err != nil {
			log.Fatalf("debug server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	sess.Teardown()
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
