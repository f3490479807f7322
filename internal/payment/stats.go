package payment

import (
	"time"

	"ipgpay-client/internal/metrics"
)

// Stats counts pipeline outcomes for one Client and the clients derived from it.
type Stats struct {
	Requests          metrics.Counter
	Completed         metrics.Counter
	Rejected          metrics.Counter
	TransportFailures metrics.Counter
	DecodingFailures  metrics.Counter
	Latency           metrics.Latency
}

type StatsSnapshot struct {
	Requests          uint64        `json:"requests"`
	Completed         uint64        `json:"completed"`
	Rejected          uint64        `json:"rejected"`
	TransportFailures uint64        `json:"transport_failures"`
	DecodingFailures  uint64        `json:"decoding_failures"`
	MeanLatency       time.Duration `json:"mean_latency"`
	MaxLatency        time.Duration `json:"max_latency"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Requests:          s.Requests.Load(),
		Completed:         s.Completed.Load(),
		Rejected:          s.Rejected.Load(),
		TransportFailures: s.TransportFailures.Load(),
		DecodingFailures:  s.DecodingFailures.Load(),
		MeanLatency:       s.Latency.Mean(),
		MaxLatency:        s.Latency.Max(),
	}
}
