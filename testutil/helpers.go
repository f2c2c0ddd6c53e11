package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/strataform/pgclient/client"
	"github.com/strataform/pgclient/transport/mock"
)

// NewTestConnection registers a throwaway driver over a fresh mock
// transport and opens a connection through it. The cleanup closes the
// connection if the test has not already done so.
func NewTestConnection(t *testing.T) (*client.Connection, *mock.Transport, func()) {
	t.Helper()

	mt := mock.New()
	scheme := "mock-" + uuid.New().String()

	driver, err := client.Register(scheme, mt.Factory())
	if err != nil {
		t.Fatalf("failed to register test driver: %v", err)
	}

	opts := client.DefaultOptions()
	opts.Logger = client.NewNoopLogger()
	opts.DebugMode = testing.Verbose()

	conn, err := driver.Connect(context.Background(), scheme+"://testdb", &opts)
	if err != nil {
		t.Fatalf("failed to connect test driver: %v", err)
	}

	cleanup := func() {
		if !conn.IsClosed() {
			if err := conn.Close(); err != nil {
				t.Logf("warning: failed to close test connection: %v", err)
			}
		}
	}
	return conn, mt, cleanup
}

// RequireNoError fails the test immediately on a non-nil error.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
