package monitor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestSnapshot_BasicFields(t *testing.T) {
	t.Parallel()

	s := NewService(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})))
	snap := s.Snapshot(context.Background())

	if snap.TakenAt == "" {
		t.Fatal("missing taken_at")
	}
	if snap.NumGoroutine <= 0 {
		t.Fatalf("num_goroutine = %d", snap.NumGoroutine)
	}
	if snap.GoVersion == "" {
		t.Fatal("missing go_version")
	}
	if snap.SnapshotFromCache {
		t.Fatal("first snapshot should not be cached")
	}
}

func TestSnapshot_CachesWithinTTL(t *testing.T) {
	t.Parallel()

	s := NewService(nil)
	first := s.Snapshot(context.Background())
	second := s.Snapshot(context.Background())

	if !second.SnapshotFromCache {
		t.Fatal("second snapshot should come from cache")
	}
	if second.TakenAt != first.TakenAt {
		t.Fatalf("cached snapshot differs: %q vs %q", second.TakenAt, first.TakenAt)
	}
}

func Test_networkHistory_CalculateSpeed_windowedAverage(t *testing.T) {
	t.Parallel()

	h := newNetworkHistory(10, 6*time.Second)
	now := time.Now()

	// An old sample outside the window should not affect the result.
	h.Add(networkStats{bytesReceived: 0, bytesSent: 0, at: now.Add(-10 * time.Second)})

	// Two points: +200 bytes in 2s => 100 B/s
	h.Add(networkStats{bytesReceived: 1000, bytesSent: 500, at: now.Add(-2 * time.Second)})
	h.Add(networkStats{bytesReceived: 1200, bytesSent: 700, at: now})

	recv, sent := h.CalculateSpeed(now)
	if recv < 99 || recv > 101 {
		t.Fatalf("recv speed = %v, want ~= 100", recv)
	}
	if sent < 99 || sent > 101 {
		t.Fatalf("sent speed = %v, want ~= 100", sent)
	}

	// Repeated calls should be stable.
	recv2, sent2 := h.CalculateSpeed(now)
	if recv2 != recv || sent2 != sent {
		t.Fatalf("speed changed unexpectedly: got (%v,%v) want (%v,%v)", recv2, sent2, recv, sent)
	}
}

func Test_networkHistory_TooFewSamples(t *testing.T) {
	t.Parallel()

	h := newNetworkHistory(10, 6*time.Second)
	if recv, sent := h.CalculateSpeed(time.Now()); recv != 0 || sent != 0 {
		t.Fatalf("speed = (%v,%v), want zeros", recv, sent)
	}
	h.Add(networkStats{bytesReceived: 100, bytesSent: 100, at: time.Now()})
	if recv, sent := h.CalculateSpeed(time.Now()); recv != 0 || sent != 0 {
		t.Fatalf("speed = (%v,%v), want zeros", recv, sent)
	}
}
