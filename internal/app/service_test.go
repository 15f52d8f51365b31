package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coinsettle/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	block    bool
	stopped  bool
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return nil
	}
	return s.startErr
}

func (s *fakeService) Stop(ctx context.Context) error {
	s.stopped = true
	return nil
}

func TestRunnerStopsAllServicesOnFailure(t *testing.T) {
	failing := &fakeService{name: "http", startErr: errors.New("bind failed")}
	blocking := &fakeService{name: "worker", block: true}
	err := NewRunner(failing, blocking).Run(context.Background(), time.Second, nil)
	if err == nil || err.Error() != "bind failed" {
		t.Fatalf("expected bind failure, got %v", err)
	}
	if !failing.stopped || !blocking.stopped {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerCancelledContextIsClean(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := &fakeService{name: "worker", block: true}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := NewRunner(svc).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
}

func TestBuildRunnerWorkerModeRequiresQueue(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{Mode: "debug"}}
	if _, err := BuildRunner(cfg, ModeWorker); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
	if _, err := BuildRunner(nil, ModeAll); err == nil {
		t.Fatalf("nil config should fail")
	}
}

func TestRunnerRunsCleanupsInReverseOrder(t *testing.T) {
	var order []string
	runner := NewRunner(&fakeService{name: "http", startErr: errors.New("done")})
	runner.OnShutdown(func() error { order = append(order, "db"); return nil })
	runner.OnShutdown(func() error { order = append(order, "queue"); return errors.New("close failed") })
	_ = runner.Run(context.Background(), time.Second, nil)
	if len(order) != 2 || order[0] != "queue" || order[1] != "db" {
		t.Fatalf("unexpected cleanup order: %v", order)
	}
}
