package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := New(handler, Config{ShutdownTimeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var order []string
	srv.OnShutdown("postgres", func(context.Context) error {
		order = append(order, "postgres")
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		order = append(order, "redis")
		return errors.New("already closed")
	})
	srv.OnShutdown("events", func(context.Context) error {
		order = append(order, "events")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("body = %q", body)
	}

	cancel()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "redis: already closed") {
			t.Fatalf("expected redis hook error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	if want := []string{"events", "redis", "postgres"}; !reflect.DeepEqual(order, want) {
		t.Errorf("shutdown order = %v, want %v", order, want)
	}
}

func TestServer_Addr(t *testing.T) {
	srv := New(http.NotFoundHandler(), Config{Port: 9090}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if srv.Addr() != ":9090" {
		t.Errorf("Addr() = %q", srv.Addr())
	}
}
