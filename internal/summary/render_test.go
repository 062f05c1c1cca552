package summary

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRender_Mixed(t *testing.T) {
	agg := NewAggregator()
	agg.Record(2, 1, "not eligible for calibration")
	agg.Record(4, 1, "not eligible for calibration")
	agg.Record(6, 255, "ssh: connect to host 10.0.0.6 port 22: No route to host\n")
	agg.Record(1, 0, "success")
	agg.Record(3, 0, "success")

	var buf bytes.Buffer
	Render(&buf, agg.Summary())
	out := buf.String()

	assert.Contains(t, out, "[SUMMARY]")
	assert.Contains(t, out, "FAILURE COUNT: 3")
	assert.Contains(t, out, "ERROR: not eligible for calibration")
	assert.Contains(t, out, "Devices: 2 4")
	assert.Contains(t, out, "ERROR: ssh: connect to host 10.0.0.6 port 22: No route to host")
	assert.Contains(t, out, "Devices: 6")
	assert.Contains(t, out, "SUCCESS COUNT: 2")
	assert.Contains(t, out, "Devices: 1 3")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, NewAggregator().Summary())
	out := buf.String()

	assert.Contains(t, out, "FAILURE COUNT: 0")
	assert.Contains(t, out, "SUCCESS COUNT: 0")
	assert.NotContains(t, out, "ERROR:")
}

func TestRender_EmptyFailureText(t *testing.T) {
	agg := NewAggregator()
	agg.Record(8, 12, "\n")

	var buf bytes.Buffer
	Render(&buf, agg.Summary())
	assert.Contains(t, buf.String(), "(no output)")
}

func TestFormatBrief(t *testing.T) {
	agg := NewAggregator()
	agg.Record(1, 0, "")
	assert.Equal(t, "1 device succeeded, 0 outcomes failed", FormatBrief(agg.Summary()))

	agg.Record(2, 0, "")
	agg.Record(3, 1, "x")
	assert.Equal(t, "2 devices succeeded, 1 outcome failed", FormatBrief(agg.Summary()))
}

func TestWriteReport(t *testing.T) {
	agg := NewAggregator()
	agg.Record(5, 1, "boom")
	agg.Record(1, 0, "ok")
	agg.Record(2, 0, "ok")

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, WriteReport(path, agg.Summary()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Summary
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, 1, got.FailureCount)
	assert.Equal(t, 2, got.SuccessCount)
	assert.Equal(t, []int{1, 2}, got.Successes)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "boom", got.Failures[0].Text)
	assert.Contains(t, string(data), "success_count: 2")
}

func TestWriteReport_BadPath(t *testing.T) {
	err := WriteReport(filepath.Join(t.TempDir(), "missing", "report.yaml"), Summary{})
	assert.Error(t, err)
}
