package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(framesTotal.WithLabelValues("meter", ResultOK))
	RecordFrame("meter", ResultOK)
	RecordFrame("meter", ResultOK)
	if got := testutil.ToFloat64(framesTotal.WithLabelValues("meter", ResultOK)); got != before+2 {
		t.Fatalf("frames = %v, want %v", got, before+2)
	}

	RecordResync(0)
	RecordResync(3)
	if got := testutil.ToFloat64(resyncBytes); got < 3 {
		t.Fatalf("resync = %v", got)
	}

	SetQueueDepth(4)
	if got := testutil.ToFloat64(queueDepth); got != 4 {
		t.Fatalf("depth = %v", got)
	}
}
