package database

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

var mongoURI string

func mustStartMongoContainer() (func(context.Context) error, error) {
	dbContainer, err := mongodb.Run(context.Background(), "mongo:7")
	if err != nil {
		return nil, err
	}

	uri, err := dbContainer.ConnectionString(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	mongoURI = uri

	return dbContainer.Terminate, err
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	teardown, err := mustStartMongoContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not start mongodb container")
	}

	code := m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatal().Err(err).Msg("Could not teardown mongodb container")
	}
	os.Exit(code)
}

func TestNew_MissingURI(t *testing.T) {
	srv, err := New("", "aarambh")
	if err != ErrMissingURI {
		t.Fatalf("expected ErrMissingURI, got %v", err)
	}
	if srv != nil {
		t.Fatal("expected nil service")
	}
}

func TestNew(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode.")
	}

	srv, err := New(mongoURI, "aarambh_test")
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer srv.Close(context.Background())

	if srv.Database().Name() != "aarambh_test" {
		t.Fatalf("expected database aarambh_test, got %s", srv.Database().Name())
	}
}

func TestHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode.")
	}

	srv, err := New(mongoURI, "aarambh_test")
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer srv.Close(context.Background())

	stats := srv.Health()

	if stats["message"] != "It's healthy" {
		t.Fatalf("expected message to be 'It's healthy', got %s", stats["message"])
	}
}
