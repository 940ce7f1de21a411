package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:16-alpine"
	mailpitImage  = "ghcr.io/axllent/mailpit:latest"
)

// PostgresContainer wraps a postgres testcontainer.
type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnectionString string
}

// MailpitContainer is a fake SMTP server whose inbox is readable over HTTP.
type MailpitContainer struct {
	testcontainers.Container
	SMTPHost string
	SMTPPort int
	APIHost  string
	APIPort  int
}

// Environment is the set of containers the service needs in integration tests.
type Environment struct {
	Postgres *PostgresContainer
	Mailpit  *MailpitContainer
}

// StartEnvironment starts PostgreSQL and Mailpit. On failure the containers
// already started are terminated.
func StartEnvironment(ctx context.Context) (*Environment, error) {
	pg, err := NewPostgresContainer(ctx)
	if err != nil {
		return nil, err
	}

	mp, err := NewMailpitContainer(ctx)
	if err != nil {
		return nil, errors.Join(err, pg.Terminate(ctx))
	}

	return &Environment{Postgres: pg, Mailpit: mp}, nil
}

// Terminate stops every container of the environment.
func (e *Environment) Terminate(ctx context.Context) error {
	var errs []error
	if e.Mailpit != nil {
		if err := e.Mailpit.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("terminate mailpit: %w", err))
		}
	}
	if e.Postgres != nil {
		if err := e.Postgres.Terminate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("terminate postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewPostgresContainer starts an empty database. Migrations are left to the
// application.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	container, err := postgres.Run(ctx,
		postgresImage,
		postgres.WithDatabase("shop"),
		postgres.WithUsername("shop"),
		postgres.WithPassword("shop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("get connection string: %w", err), container.Terminate(ctx))
	}

	return &PostgresContainer{
		PostgresContainer: container,
		ConnectionString:  connStr,
	}, nil
}

// NewMailpitContainer starts Mailpit with SMTP on 1025 and the API on 8025.
func NewMailpitContainer(ctx context.Context) (*MailpitContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mailpitImage,
			ExposedPorts: []string{"1025/tcp", "8025/tcp"},
			Env: map[string]string{
				"MP_SMTP_AUTH_ACCEPT_ANY":     "1",
				"MP_SMTP_AUTH_ALLOW_INSECURE": "1",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("1025/tcp"),
				wait.ForHTTP("/api/v1/info").WithPort("8025/tcp"),
			).WithDeadline(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start mailpit container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("get mailpit host: %w", err), container.Terminate(ctx))
	}

	smtpPort, err := container.MappedPort(ctx, "1025/tcp")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("get smtp port: %w", err), container.Terminate(ctx))
	}

	apiPort, err := container.MappedPort(ctx, "8025/tcp")
	if err != nil {
		return nil, errors.Join(fmt.Errorf("get api port: %w", err), container.Terminate(ctx))
	}

	return &MailpitContainer{
		Container: container,
		SMTPHost:  host,
		SMTPPort:  smtpPort.Int(),
		APIHost:   host,
		APIPort:   apiPort.Int(),
	}, nil
}

// Client returns a client for the Mailpit inbox API.
func (m *MailpitContainer) Client() *MailpitClient {
	return NewMailpitClient(m.APIHost, m.APIPort)
}
