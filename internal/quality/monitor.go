package quality

import (
	"context"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/rs/zerolog"
)

// InboundAudioStats is one inbound-audio stat record from the transport
type InboundAudioStats struct {
	PacketsLost     int64
	PacketsReceived uint64
}

// Sample is one tick's worth of raw transport statistics
type Sample struct {
	InboundAudio []InboundAudioStats
	RoundTrip    time.Duration // from the succeeded candidate pair
}

// StatsSource provides transport statistics for an active connection.
// ok=false means the connection is gone and the monitor should stop.
type StatsSource interface {
	Sample(ctx context.Context) (sample Sample, ok bool)
}

// Sink receives classified quality results, typically a live session
type Sink interface {
	SetQuality(q types.ConnectionQuality)
}

// Monitor periodically samples a connection's statistics and writes the
// classified quality into its sink. It self-terminates when the source
// reports the connection unavailable, checked each tick.
type Monitor struct {
	source   StatsSource
	sink     Sink
	interval time.Duration
	logger   zerolog.Logger
}

// NewMonitor creates a quality monitor for one connection
func NewMonitor(source StatsSource, sink Sink, interval time.Duration, logger zerolog.Logger) *Monitor {
	return &Monitor{
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   logger,
	}
}

// Run samples until the context is cancelled or the connection goes away.
// Sampling failures are skipped for that tick; no errors surface.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.logger.Debug().Dur("interval", m.interval).Msg("quality monitor started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug().Msg("quality monitor stopped")
			return

		case <-ticker.C:
			sample, ok := m.source.Sample(ctx)
			if !ok {
				m.logger.Debug().Msg("connection gone, quality monitor exiting")
				return
			}

			q := Evaluate(sample)
			m.sink.SetQuality(q)

			m.logger.Debug().
				Float64("latency_ms", q.LatencyMs).
				Float64("packet_loss_pct", q.PacketLossPct).
				Str("tier", string(q.Tier)).
				Msg("quality sampled")
		}
	}
}

// Evaluate accumulates a sample's inbound-audio counters (cumulative,
// not windowed) and classifies the result.
func Evaluate(sample Sample) types.ConnectionQuality {
	var lost int64
	var received uint64
	for _, s := range sample.InboundAudio {
		lost += s.PacketsLost
		received += s.PacketsReceived
	}

	lossPct := 0.0
	if received > 0 {
		lossPct = float64(lost) / float64(received) * 100
	}
	rttMs := float64(sample.RoundTrip) / float64(time.Millisecond)

	return types.ConnectionQuality{
		LatencyMs:     rttMs,
		PacketLossPct: lossPct,
		Tier:          Classify(rttMs, lossPct),
	}
}

// Classify maps round-trip time and packet loss to a quality tier
func Classify(rttMs, lossPct float64) types.QualityTier {
	switch {
	case rttMs < 100 && lossPct < 1:
		return types.QualityExcellent
	case rttMs < 200 && lossPct < 3:
		return types.QualityGood
	case rttMs < 300 && lossPct < 5:
		return types.QualityFair
	default:
		return types.QualityPoor
	}
}
