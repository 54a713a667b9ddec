// Package metrics exposes Prometheus counters for the tree service and the
// permission engine. Pass a *Recorder to tree.Service.WithObserver and
// perm.Engine.WithObserver; the nil Recorder records nothing.
package metrics
