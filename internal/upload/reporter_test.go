package upload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporterRendersStatusAndErrors(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	reporter.Handle(Event{Path: "raw/a.dat", Kind: EventStatus, Status: StatusUploading})
	reporter.Handle(Event{Path: "raw/a.dat", Kind: EventProgress, Bytes: 1024})
	reporter.Handle(Event{Path: "raw/b.dat", Kind: EventStatus, Status: StatusSkipped, Message: "file exists"})
	reporter.Handle(Event{Path: "raw/c.dat", Kind: EventError, Message: "asset exists"})

	out := buf.String()
	assert.Contains(t, out, "raw/a.dat")
	assert.Contains(t, out, StatusUploading)
	assert.Contains(t, out, "1.0 KiB")
	assert.Contains(t, out, "skipped file exists")
	assert.Contains(t, out, "ERROR asset exists")
}

func TestReporterThrottlesProgress(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	reporter.Handle(Event{Path: "raw/a.dat", Kind: EventProgress, Bytes: 100})
	lines := buf.Len()
	reporter.Handle(Event{Path: "raw/a.dat", Kind: EventProgress, Bytes: 200})
	assert.Equal(t, lines, buf.Len(), "second progress event within the interval should not print")
}

func TestReporterSummary(t *testing.T) {
	var buf bytes.Buffer
	reporter := NewReporter(&buf)

	result := NewBatchResult()
	a, err := result.Track("raw/a.dat")
	require.NoError(t, err)
	a.SetStatus(OutcomeDone, "")
	b, err := result.Track("raw/b.dat")
	require.NoError(t, err)
	b.SetStatus(OutcomeErrored, "boom")
	b.AddError("boom")
	result.MarkValidateFailed()

	reporter.Summary(result)

	out := buf.String()
	assert.Contains(t, out, "1 done, 0 skipped, 1 errored")
	assert.Contains(t, out, "failed validation")
	assert.Contains(t, out, "boom")
}