package sales

import "time"

// Metrics receives business-level posting signals. The HTTP layer wires a
// Prometheus implementation; tests and tools run with the no-op.
type Metrics interface {
	SalePosted(duration time.Duration)
	SaleCancelled()
	SequenceConflict()
	FiscalRecordingFailure()
}

// NopMetrics discards all signals
type NopMetrics struct{}

func (NopMetrics) SalePosted(time.Duration) {}
func (NopMetrics) SaleCancelled()           {}
func (NopMetrics) SequenceConflict()        {}
func (NopMetrics) FiscalRecordingFailure()  {}
