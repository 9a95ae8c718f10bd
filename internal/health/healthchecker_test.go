package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) {}

type fakePinger struct{ err atomic.Value }

func (p *fakePinger) HealthPing(context.Context) error {
	if v, ok := p.err.Load().(error); ok && v != nil {
		return v
	}
	return nil
}

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeChecker{name: "store"}
	tg := &fakeChecker{name: "telegram"}
	store.healthy.Store(1)
	tg.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), store, tg)
	go svc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, func() bool { return svc.IsHealthy() })

	tg.healthy.Store(0)
	waitTrue(t, func() bool { return !svc.IsHealthy() })
	if comps := svc.Components(); comps["telegram"] || !comps["store"] {
		t.Fatalf("unexpected components: %v", comps)
	}

	tg.healthy.Store(1)
	waitTrue(t, func() bool { return svc.IsHealthy() })
}

func TestProbeChecker(t *testing.T) {
	p := &fakePinger{}
	c := NewProbeChecker("store", p, zerolog.Nop(), time.Second)
	if c.IsHealthy() {
		t.Fatalf("checker must start unhealthy")
	}
	if !c.Check(context.Background()) || !c.IsHealthy() {
		t.Fatalf("expected healthy after successful probe")
	}
	p.err.Store(errors.New("connection refused"))
	if c.Check(context.Background()) || c.IsHealthy() {
		t.Fatalf("expected unhealthy after failed probe")
	}
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
