package client_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/strataform/pgclient/client"
	"github.com/strataform/pgclient/transport"
	"github.com/strataform/pgclient/transport/mock"
)

func uniqueScheme() string {
	return "drv-" + uuid.New().String()
}

func TestRegisterAndConnectByScheme(t *testing.T) {
	scheme := uniqueScheme()
	mt := mock.New()

	driver, err := client.Register(scheme, mt.Factory())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if driver.Name() != scheme {
		t.Errorf("Name = %q, want %q", driver.Name(), scheme)
	}

	opts := client.DefaultOptions()
	opts.Logger = client.NewNoopLogger()

	conn, err := client.Connect(context.Background(), scheme+"://localhost/db", &opts)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if conn.RemoteAddr() != "mock:5432" {
		t.Errorf("RemoteAddr = %q", conn.RemoteAddr())
	}
}

func TestRegisterDuplicateScheme(t *testing.T) {
	scheme := uniqueScheme()
	mt := mock.New()

	if _, err := client.Register(scheme, mt.Factory()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := client.Register(scheme, mt.Factory())
	var connErr *client.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %v", err)
	}
	if connErr.Code != client.CodeDriverRegistered {
		t.Errorf("code = %s, want %s", connErr.Code, client.CodeDriverRegistered)
	}
}

func TestRegisterValidation(t *testing.T) {
	if _, err := client.Register("", mock.New().Factory()); err == nil {
		t.Error("empty scheme should be rejected")
	}
	if _, err := client.Register(uniqueScheme(), nil); err == nil {
		t.Error("nil factory should be rejected")
	}
}

func TestConnectUnknownScheme(t *testing.T) {
	_, err := client.Connect(context.Background(), "nosuch://host/db", nil)
	var connErr *client.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %v", err)
	}
	if connErr.Code != client.CodeDriverUnknown {
		t.Errorf("code = %s, want %s", connErr.Code, client.CodeDriverUnknown)
	}
}

func TestConnectMissingScheme(t *testing.T) {
	_, err := client.Connect(context.Background(), "localhost:5432/db", nil)
	var connErr *client.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %v", err)
	}
	if connErr.Code != client.CodeConnectionFailed {
		t.Errorf("code = %s", connErr.Code)
	}
}

func TestDriverConnectFactoryFailure(t *testing.T) {
	scheme := uniqueScheme()
	boom := fmt.Errorf("handshake refused")

	factory := func(ctx context.Context, url string, options map[string]string) (transport.Transport, error) {
		return nil, boom
	}

	driver, err := client.Register(scheme, factory)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err = driver.Connect(context.Background(), scheme+"://host/db", nil)
	var connErr *client.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected *ConnectionError, got %v", err)
	}
	if connErr.Code != client.CodeConnectionFailed {
		t.Errorf("code = %s", connErr.Code)
	}
	if !errors.Is(err, boom) {
		t.Error("factory error should stay reachable through the chain")
	}
}

func TestDriverConnectPassesTransportOptions(t *testing.T) {
	scheme := uniqueScheme()

	var gotURL string
	var gotOptions map[string]string
	factory := func(ctx context.Context, url string, options map[string]string) (transport.Transport, error) {
		gotURL = url
		gotOptions = options
		return mock.New(), nil
	}

	driver, err := client.Register(scheme, factory)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	opts := client.DefaultOptions()
	opts.Logger = client.NewNoopLogger()
	opts.TransportOptions = map[string]string{"sslmode": "disable"}

	conn, err := driver.Connect(context.Background(), scheme+"://host/db", &opts)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer conn.Close()

	if gotURL != scheme+"://host/db" {
		t.Errorf("factory url = %q", gotURL)
	}
	if gotOptions["sslmode"] != "disable" {
		t.Errorf("transport options not passed through: %v", gotOptions)
	}
}
