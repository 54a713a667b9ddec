package metrics

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_TreeOperation(t *testing.T) {
	r := New("")

	r.TreeOperation("categories", "add", "ok")
	r.TreeOperation("categories", "add", "ok")
	r.TreeOperation("categories", "delete", "fault")

	if got := testutil.ToFloat64(r.TreeOperationsTotal.WithLabelValues("categories", "add", "ok")); got != 2 {
		t.Errorf("add/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.ConsistencyFaults.WithLabelValues("categories")); got != 1 {
		t.Errorf("faults = %v, want 1", got)
	}
}

func TestRecorder_PermissionDenied(t *testing.T) {
	r := New("test")
	r.PermissionDenied("storelocations", "move")

	if got := testutil.ToFloat64(r.PermissionDenials.WithLabelValues("storelocations", "move")); got != 1 {
		t.Errorf("denials = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.PermissionDenials); n != 1 {
		t.Errorf("series = %d, want 1", n)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.TreeOperation("categories", "add", "ok")
	r.PermissionDenied("tools", "labels")
	if err := r.WriteText(&bytes.Buffer{}); err != nil {
		t.Errorf("WriteText() error = %v", err)
	}
}

func TestRecorder_WriteText(t *testing.T) {
	r := New("partdb")
	r.TreeOperation("footprints", "get", "denied")

	var buf bytes.Buffer
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `partdb_tree_operations_total{operation="get",outcome="denied",table="footprints"} 1`) {
		t.Errorf("missing counter in output:\n%s", out)
	}
}
