package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		201: "2xx",
		304: "3xx",
		401: "4xx",
		422: "4xx",
		500: "5xx",
		0:   "unknown",
	}
	for code, want := range tests {
		if got := StatusClass(code); got != want {
			t.Errorf("StatusClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestRecordEntityWrite(t *testing.T) {
	counter := entityWritesTotal.WithLabelValues("agent", "create", "ok")
	before := testutil.ToFloat64(counter)

	RecordEntityWrite("agent", "create", "ok")

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}
