package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

func TestBuildBatch(t *testing.T) {
	posted := time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)

	withSalary := models.NewJobRecord(models.SourceIndeed)
	withSalary.JobID = "abc123"
	withSalary.Title = "Développeur Go"
	withSalary.PostedTime = models.NewTimestamp(posted)
	withSalary.SalaryOffered = models.SalaryText("45000 - 60000 YEARLY")
	withSalary.TechnologiesRequired = []string{"Go"}

	bare := models.JobRecord{Source: models.SourceLinkedIn, JobID: "42", Title: "Backend"}

	runID := uuid.New()
	batch := BuildBatch(runID, []models.JobRecord{*withSalary, bare})
	require.Equal(t, 2, batch.Len())

	first := batch.QueuedQueries[0]
	assert.True(t, strings.Contains(first.SQL, "ON CONFLICT (source, job_id)"))
	require.Len(t, first.Arguments, 20)
	assert.Equal(t, "Indeed", first.Arguments[0])
	assert.Equal(t, "abc123", first.Arguments[1])
	assert.Equal(t, &posted, first.Arguments[6])
	assert.Equal(t, []string{"Go"}, first.Arguments[14])
	assert.Equal(t, "45000 - 60000 YEARLY", first.Arguments[16])
	assert.Equal(t, runID, first.Arguments[19])

	second := batch.QueuedQueries[1]
	assert.Nil(t, second.Arguments[6], "zero posted time is NULL")
	assert.Equal(t, []string{}, second.Arguments[14])
	assert.Equal(t, "", second.Arguments[16])
	assert.Nil(t, second.Arguments[18])

	assert.Nil(t, BuildBatch(uuid.Nil, []models.JobRecord{bare}).QueuedQueries[0].Arguments[19])
}

type fakeResults struct {
	errs   []error
	calls  int
	closed bool
}

func (f *fakeResults) Exec() (pgconn.CommandTag, error) {
	var err error
	if f.calls < len(f.errs) {
		err = f.errs[f.calls]
	}
	f.calls++
	return pgconn.NewCommandTag("INSERT 0 1"), err
}

func (f *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("unused") }
func (f *fakeResults) QueryRow() pgx.Row         { return nil }
func (f *fakeResults) Close() error {
	f.closed = true
	return nil
}

type fakeSender struct {
	results *fakeResults
	sent    *pgx.Batch
}

func (f *fakeSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.sent = b
	return f.results
}

func TestSendBatch(t *testing.T) {
	records := []models.JobRecord{{JobID: "1"}, {JobID: "2"}, {JobID: "3"}}

	ok := &fakeSender{results: &fakeResults{}}
	require.NoError(t, sendBatch(context.Background(), ok, BuildBatch(uuid.Nil, records)))
	assert.Equal(t, 3, ok.results.calls)
	assert.True(t, ok.results.closed)

	failing := &fakeSender{results: &fakeResults{errs: []error{nil, errors.New("unique violation")}}}
	err := sendBatch(context.Background(), failing, BuildBatch(uuid.Nil, records))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job 1: unique violation")
	assert.Equal(t, 3, failing.results.calls, "every result is drained")

	empty := &fakeSender{results: &fakeResults{}}
	require.NoError(t, sendBatch(context.Background(), empty, &pgx.Batch{}))
	assert.Nil(t, empty.sent, "nothing is sent for an empty batch")
}
