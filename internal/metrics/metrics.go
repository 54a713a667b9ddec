// ABOUTME: Prometheus counters for tree operations and permission denials
// ABOUTME: Recorder implements tree.Observer and perm.DenialObserver; a nil Recorder is a no-op

package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "partdb"

// Recorder holds the core's metrics.
type Recorder struct {
	registry *prometheus.Registry

	TreeOperationsTotal *prometheus.CounterVec
	PermissionDenials   *prometheus.CounterVec
	ConsistencyFaults   *prometheus.CounterVec
}

// New creates a Recorder and registers its metrics with a fresh registry.
func New(namespace string) *Recorder {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		TreeOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tree_operations_total",
				Help:      "Tree operations by table, operation and outcome",
			},
			[]string{"table", "operation", "outcome"},
		),
		PermissionDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_denials_total",
				Help:      "Denied permission checks by category and operation",
			},
			[]string{"category", "operation"},
		),
		ConsistencyFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "consistency_faults_total",
				Help:      "Operations aborted by a consistency fault",
			},
			[]string{"table"},
		),
	}
	r.registry.MustRegister(r.TreeOperationsTotal, r.PermissionDenials, r.ConsistencyFaults)
	return r
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// TreeOperation counts one finished tree operation.
func (r *Recorder) TreeOperation(table, op, outcome string) {
	if r == nil {
		return
	}
	r.TreeOperationsTotal.WithLabelValues(table, op, outcome).Inc()
	if outcome == "fault" {
		r.ConsistencyFaults.WithLabelValues(table).Inc()
	}
}

// PermissionDenied counts one denied check.
func (r *Recorder) PermissionDenied(category, op string) {
	if r == nil {
		return
	}
	r.PermissionDenials.WithLabelValues(category, op).Inc()
}

// WriteText writes every gathered metric to w in the Prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
