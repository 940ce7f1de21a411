//go:build integration

package app_test

import (
	"context"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bissquit/shop-subscriptions/internal/app"
	"github.com/bissquit/shop-subscriptions/internal/config"
	"github.com/bissquit/shop-subscriptions/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	openAPISpecPath = "../../api/openapi/openapi.yaml"

	adminEmail    = "owner@shop.example.com"
	adminPassword = "owner-password"

	shopHomeURL     = "https://shop.example.com/"
	shopCheckoutURL = "https://shop.example.com/checkout/"
)

var (
	testApp       *app.App
	testServer    *httptest.Server
	testValidator *testutil.OpenAPIValidator
	testDB        *pgxpool.Pool
	mailpit       *testutil.MailpitClient
)

func newTestClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := testutil.NewClientWithValidator(testServer.URL, testValidator)
	client.SetT(t)
	return client
}

func newAdminClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := newTestClient(t)
	client.LoginAs(t, adminEmail, adminPassword)
	return client
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	env, err := testutil.StartEnvironment(ctx)
	if err != nil {
		log.Fatalf("start containers: %v", err)
	}
	mailpit = env.Mailpit.Client()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         "0",
			MetricsPort:  "0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: config.DatabaseConfig{
			URL:             env.Postgres.ConnectionString,
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 3,
			AutoMigrate:     true,
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "text",
		},
		JWT: config.JWTConfig{
			SecretKey:           "test-secret-key",
			AccessTokenDuration: 15 * time.Minute,
		},
		Shop: config.ShopConfig{
			Name:        "Gold Shop",
			HomeURL:     shopHomeURL,
			CheckoutURL: shopCheckoutURL,
			Timezone:    "UTC",
		},
		Email: config.EmailConfig{
			Enabled:     true,
			SMTPHost:    env.Mailpit.SMTPHost,
			SMTPPort:    env.Mailpit.SMTPPort,
			FromAddress: "Gold Shop <noreply@shop.example.com>",
		},
		// Long poll interval: tests drive the worker through RunDue.
		Scheduler: config.SchedulerConfig{
			BatchSize:         50,
			PollInterval:      time.Hour,
			NumWorkers:        1,
			MaxAttempts:       3,
			InitialBackoff:    time.Second,
			MaxBackoff:        time.Minute,
			BackoffMultiplier: 2,
			StuckTimeout:      time.Hour,
		},
		Admin: config.AdminConfig{
			Email:    adminEmail,
			Password: adminPassword,
		},
	}

	testApp, err = app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	testDB, err = pgxpool.New(ctx, env.Postgres.ConnectionString)
	if err != nil {
		log.Fatalf("create test db pool: %v", err)
	}

	testServer = httptest.NewServer(testApp.Router())

	testValidator, err = testutil.LoadOpenAPIValidator(openAPISpecPath)
	if err != nil {
		log.Fatalf("load OpenAPI validator: %v", err)
	}

	code := m.Run()

	testServer.Close()
	testDB.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := testApp.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown app: %v", err)
	}
	cancel()

	if err := env.Terminate(ctx); err != nil {
		log.Printf("terminate containers: %v", err)
	}

	os.Exit(code)
}
