package jobs

import (
	"testing"
	"time"
)

func TestPolicyBackoff(t *testing.T) {
	p := Policy{Interval: time.Second, MaxBackoff: 5 * time.Second}
	p.defaults()

	want := []time.Duration{time.Second, time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for failures, w := range want {
		if got := p.backoff(failures); got != w {
			t.Errorf("backoff(%d) = %v, want %v", failures, got, w)
		}
	}
}

func TestPolicyDefaults(t *testing.T) {
	p := Policy{MaxErrors: -1, MaxElapsed: -time.Second}
	p.defaults()
	if p.Interval != 2*time.Second {
		t.Fatalf("interval = %v", p.Interval)
	}
	if p.MaxErrors != 0 || p.MaxElapsed != 0 {
		t.Fatalf("negative limits not cleared: %+v", p)
	}
	if p.MaxBackoff != p.Interval {
		t.Fatalf("max backoff = %v", p.MaxBackoff)
	}
}
