// Package platform connects to the hosted Firebase project.
package platform

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/noah-isme/escuela-portal-api/pkg/config"
)

// Clients bundles the Firebase service clients used by the gateway adapters.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// ClientOptions derives the Google API client options from config.
func ClientOptions(cfg config.FirebaseConfig) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	return opts
}

// Connect initialises the app and whichever clients the configured drivers need.
func Connect(ctx context.Context, cfg config.FirebaseConfig, needStore, needAuth bool) (*Clients, error) {
	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, appCfg, ClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	clients := &Clients{App: app}
	if needStore {
		if clients.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("init firestore: %w", err)
		}
	}
	if needAuth {
		if clients.Auth, err = app.Auth(ctx); err != nil {
			clients.Close()
			return nil, fmt.Errorf("init firebase auth: %w", err)
		}
	}
	return clients, nil
}

// Close releases the Firestore connection.
func (c *Clients) Close() {
	if c != nil && c.Firestore != nil {
		_ = c.Firestore.Close()
	}
}
