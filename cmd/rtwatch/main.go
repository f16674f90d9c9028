// Command rtwatch connects to the realtime endpoint and logs every event it receives.
// It refetches the unread summary over HTTP after each reconnect.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/anonto42/careerconnect/backend/pkg/logger"
	"github.com/anonto42/careerconnect/backend/pkg/rtclient"
	"go.uber.org/zap"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API base URL")
	token := flag.String("token", os.Getenv("CAREERCONNECT_TOKEN"), "bearer token (defaults to $CAREERCONNECT_TOKEN)")
	join := flag.String("join", "", "comma separated conversation ids to subscribe to")
	attempts := flag.Int("attempts", 5, "consecutive failed dials before giving up")
	flag.Parse()

	zl, err := logger.New("development")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	wsURL, err := socketURL(*server)
	if err != nil {
		zl.Fatal("invalid server URL", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := rtclient.NewStore()
	client := rtclient.New(rtclient.Options{
		URL:         wsURL,
		Token:       func(context.Context) (string, error) { return *token, nil },
		MaxAttempts: *attempts,
		Logger:      zl,
		OnReconnect: func(ctx context.Context) {
			summary, err := fetchSummary(ctx, *server, *token)
			if err != nil {
				zl.Warn("refetch after reconnect failed", zap.Error(err))
				return
			}
			store.SetSummary(summary)
			zl.Info("resynced unread summary", zap.Int64("total", summary.Total))
		},
		OnEvent: func(env realtime.Envelope) {
			zl.Info("event",
				zap.String("event", env.Event),
				zap.ByteString("data", env.Data),
				zap.Int64("unread_total", store.Summary().Total),
			)
		},
	}, store)

	for _, id := range strings.Split(*join, ",") {
		if id = strings.TrimSpace(id); id != "" {
			_ = client.Join(id)
		}
	}

	zl.Info("watching", zap.String("url", wsURL))
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zl.Fatal("realtime client stopped", zap.Error(err))
	}
}

func socketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func fetchSummary(ctx context.Context, base, token string) (models.UnreadSummary, error) {
	var summary models.UnreadSummary

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+"/api/v1/unread", nil)
	if err != nil {
		return summary, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return summary, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return summary, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return summary, json.NewDecoder(resp.Body).Decode(&summary)
}
