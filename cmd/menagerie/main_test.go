package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"menagerie/internal/config"
	"menagerie/internal/logging"
	"menagerie/pkg/domain"
)

const seedDoc = `{"animals":[{"id":"0","name":"Erica","species":"gorilla","diet":"omnivore","personalityTraits":["quirky"]}]}`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "animals.json")
	if err := os.WriteFile(path, []byte(seedDoc), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestDumpPrintsDocument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"menagerie", "--data-file", writeSeed(t), "dump"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "{\n  \"animals\": [\n") {
		t.Fatalf("unexpected dump output:\n%s", stdout.String())
	}
	animals, err := domain.UnmarshalDocument(stdout.Bytes())
	if err != nil || len(animals) != 1 || animals[0].Name != "Erica" {
		t.Fatalf("dump did not round-trip: %v %+v", err, animals)
	}
}

func TestMissingDataFileFailsStartup(t *testing.T) {
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "absent.json")
	if code := run(context.Background(), []string{"menagerie", "--data-file", missing, "dump"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "menagerie:") {
		t.Fatalf("expected error on stderr, got %q", stderr.String())
	}
}

func TestInvalidConfigurationFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"menagerie", "--storage", "mongo", "dump"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
}

func TestServeHandlesRequestsAndShutsDown(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.Storage.Driver = "memory"
	cfg.Storage.Seed = writeSeed(t)

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, logging.Discard(), func(a net.Addr) { addrCh <- a }) }()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not start")
	}
	base := "http://" + addr.String()

	resp, err := http.Post(base+"/api/animals", "application/json",
		strings.NewReader(`{"name":"Noel","species":"bear","diet":"carnivore"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var created domain.Animal
	_ = json.NewDecoder(resp.Body).Decode(&created)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || created.ID != "1" {
		t.Fatalf("unexpected create response %d %+v", resp.StatusCode, created)
	}

	resp, err = http.Get(base + "/api/animals?species=bear")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if !strings.Contains(string(body), `"name":"Noel"`) || strings.Contains(string(body), "Erica") {
		t.Fatalf("unexpected list body %s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
