package logging

import (
	"k8s.io/klog/v2"
)

// KlogReporter writes status lines through klog.
type KlogReporter struct {
	loadID string
}

// NewKlogReporter creates a reporter tagging every line with loadID (may be empty).
func NewKlogReporter(loadID string) *KlogReporter {
	return &KlogReporter{loadID: loadID}
}

// WithLoadID returns a copy of the reporter bound to another load.
func (r *KlogReporter) WithLoadID(loadID string) *KlogReporter {
	return &KlogReporter{loadID: loadID}
}

func (r *KlogReporter) Status(message string) {
	klog.InfoS(message, r.keysAndValues()...)
}

// Warn keeps warning severity and renders the line in the same
// `"message" load="id"` form as InfoS and ErrorS, which klog has no S variant for.
func (r *KlogReporter) Warn(message string) {
	if r.loadID == "" {
		klog.Warningf("%q", message)
		return
	}
	klog.Warningf("%q load=%q", message, r.loadID)
}

func (r *KlogReporter) Error(message string) {
	klog.ErrorS(nil, message, r.keysAndValues()...)
}

func (r *KlogReporter) keysAndValues() []any {
	if r.loadID == "" {
		return nil
	}
	return []any{"load", r.loadID}
}

// Discard drops every message.
type Discard struct{}

func (Discard) Status(string) {}
func (Discard) Warn(string)   {}
func (Discard) Error(string)  {}
