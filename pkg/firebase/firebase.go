package firebase

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// NewAuthClient builds the Firebase auth client used to verify ID tokens at
// /auth/firebase-login. An empty credentials path returns (nil, nil): Firebase login stays off.
func NewAuthClient(ctx context.Context, credentialsPath string, logger *zap.Logger) (*auth.Client, error) {
	if credentialsPath == "" {
		logger.Info("firebase credentials not configured, firebase login disabled")
		return nil, nil
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.Info("firebase auth client initialized")
	return client, nil
}
