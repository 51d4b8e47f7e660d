package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/klog/v2"
)

func captureKlog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	klog.LogToStderr(false)
	klog.SetOutput(&buf)
	t.Cleanup(func() {
		klog.Flush()
		klog.LogToStderr(true)
	})
	return &buf
}

func TestKlogReporter_LinesShareLoadKey(t *testing.T) {
	buf := captureKlog(t)
	r := NewKlogReporter("load-1")

	r.Status("Loaded 3 experiments")
	r.Warn("No container identity")
	r.Error("No overlap")
	klog.Flush()

	out := buf.String()
	assert.Contains(t, out, `"Loaded 3 experiments" load="load-1"`)
	assert.Contains(t, out, `"No container identity" load="load-1"`)
	assert.Contains(t, out, `"No overlap" load="load-1"`)
}

func TestKlogReporter_WithoutLoadID(t *testing.T) {
	buf := captureKlog(t)
	r := NewKlogReporter("")

	r.Warn("Skipped 2 malformed records")
	klog.Flush()

	out := buf.String()
	assert.Contains(t, out, `"Skipped 2 malformed records"`)
	assert.NotContains(t, out, "load=")
}

func TestKlogReporter_WithLoadID(t *testing.T) {
	buf := captureKlog(t)
	NewKlogReporter("").WithLoadID("load-2").Status("Loading data")
	klog.Flush()

	assert.Contains(t, buf.String(), `"Loading data" load="load-2"`)
}
