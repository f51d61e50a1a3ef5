package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMustRegisterExposesCounters(t *testing.T) {
	r := prometheus.NewRegistry()
	MustRegister(r)

	QueriesTotal.WithLabelValues("ok").Inc()
	ToolCallsTotal.WithLabelValues("query_table", "ok").Inc()

	n, err := testutil.GatherAndCount(r, "crm_queries_total", "crm_tool_calls_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n < 2 {
		t.Fatalf("expected at least two series, got %d", n)
	}
}
