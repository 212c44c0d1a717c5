package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverterMetricsCount(t *testing.T) {
	r := NewRegistry()
	m := r.Converter("plc")

	m.RowProcessed("DI")
	m.RowProcessed("DI")
	m.LineEmitted("DI")
	m.RuleRejected("AI")
	m.LookupMiss("ALM", "{Status}")
	m.FileWritten()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.rowsProcessed.WithLabelValues("plc", "DI")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.linesEmitted.WithLabelValues("plc", "DI")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.rulesRejected.WithLabelValues("plc", "AI")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lookupMisses.WithLabelValues("plc", "ALM", "{Status}")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filesWritten.WithLabelValues("plc")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRegistry()
	m := r.Converter("alarms")
	m.LineEmitted("ALM")
	m.RunFinished(250*time.Millisecond, true)

	path := filepath.Join(t.TempDir(), "tagconverter.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tagconverter_lines_emitted_total{converter="alarms",type="ALM"} 1`)
	assert.Contains(t, string(data), `tagconverter_converter_success{converter="alarms"} 1`)
}
