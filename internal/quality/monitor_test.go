package quality

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		rttMs   float64
		lossPct float64
		want    types.QualityTier
	}{
		{50, 0, types.QualityExcellent},
		{150, 2, types.QualityGood},
		{250, 4, types.QualityFair},
		{500, 10, types.QualityPoor},
		{99, 0.9, types.QualityExcellent},
		{100, 0, types.QualityGood},
		{50, 1, types.QualityGood},
		{199, 2.9, types.QualityGood},
		{299, 4.9, types.QualityFair},
		{300, 0, types.QualityPoor},
		{50, 5, types.QualityPoor},
	}

	for _, tt := range tests {
		if got := Classify(tt.rttMs, tt.lossPct); got != tt.want {
			t.Errorf("Classify(%.0f, %.1f) = %s, want %s", tt.rttMs, tt.lossPct, got, tt.want)
		}
	}
}

func TestEvaluateAccumulatesRecords(t *testing.T) {
	q := Evaluate(Sample{
		InboundAudio: []InboundAudioStats{
			{PacketsLost: 1, PacketsReceived: 50},
			{PacketsLost: 1, PacketsReceived: 50},
		},
		RoundTrip: 150 * time.Millisecond,
	})

	if q.PacketLossPct != 2.0 {
		t.Errorf("expected 2%% loss, got %.2f", q.PacketLossPct)
	}
	if q.LatencyMs != 150 {
		t.Errorf("expected 150ms latency, got %.1f", q.LatencyMs)
	}
	if q.Tier != types.QualityGood {
		t.Errorf("expected good tier, got %s", q.Tier)
	}
}

func TestEvaluateNoPacketsReceived(t *testing.T) {
	q := Evaluate(Sample{
		InboundAudio: []InboundAudioStats{{PacketsLost: 10, PacketsReceived: 0}},
		RoundTrip:    50 * time.Millisecond,
	})

	if q.PacketLossPct != 0 {
		t.Errorf("expected 0%% loss with no packets received, got %.2f", q.PacketLossPct)
	}
	if q.Tier != types.QualityExcellent {
		t.Errorf("expected excellent tier, got %s", q.Tier)
	}
}

type fakeSource struct {
	mu      sync.Mutex
	samples int
	maxOK   int
}

func (f *fakeSource) Sample(ctx context.Context) (Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples++
	if f.samples > f.maxOK {
		return Sample{}, false
	}
	return Sample{
		InboundAudio: []InboundAudioStats{{PacketsLost: 0, PacketsReceived: 100}},
		RoundTrip:    40 * time.Millisecond,
	}, true
}

type fakeSink struct {
	mu   sync.Mutex
	last types.ConnectionQuality
	sets int
}

func (f *fakeSink) SetQuality(q types.ConnectionQuality) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = q
	f.sets = f.sets + 1
}

func TestMonitorSelfTerminates(t *testing.T) {
	source := &fakeSource{maxOK: 3}
	sink := &fakeSink{}
	monitor := NewMonitor(source, sink, time.Millisecond, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		monitor.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not self-terminate after source reported connection gone")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.sets != 3 {
		t.Errorf("expected 3 quality writes, got %d", sink.sets)
	}
	if sink.last.Tier != types.QualityExcellent {
		t.Errorf("expected excellent tier, got %s", sink.last.Tier)
	}
}

func TestMonitorStopsOnContextCancel(t *testing.T) {
	source := &fakeSource{maxOK: 1 << 30}
	sink := &fakeSink{}
	monitor := NewMonitor(source, sink, time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on context cancellation")
	}
}
