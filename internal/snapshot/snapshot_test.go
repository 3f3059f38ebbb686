package snapshot

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "jobs.json")
	posted := time.Date(2024, 3, 12, 9, 30, 0, 123456000, time.UTC)

	var records []models.JobRecord
	for _, id := range []string{"1", "2", "3"} {
		rec := models.NewJobRecord(models.SourceLinkedIn)
		rec.JobID = id
		rec.Title = "Développeur Go <senior> & co " + id
		rec.PostedTime = models.NewTimestamp(posted)
		rec.DateAnalyzed = models.NewTimestamp(posted.Add(time.Hour))
		records = append(records, *rec)
	}
	records[1].TechnologiesRequired = []string{"Go", "gRPC"}
	records[1].SalaryOffered = models.SalaryAmount(52000)
	records[2].SalaryOffered = models.SalaryText("45000 - 60000 YEARLY")
	records[2].PostedTime = models.Timestamp{}

	require.NoError(t, Save(path, records))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<senior> & co", "html is not escaped")
	assert.Contains(t, string(raw), "\n    {", "four-space indent")

	loaded, err := Load(path, logger())
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	for i := range records {
		assert.Equal(t, records[i].JobID, loaded[i].JobID)
		assert.Equal(t, records[i].Title, loaded[i].Title)
		assert.True(t, records[i].PostedTime.Equal(loaded[i].PostedTime.Time), "posted_time of %s", records[i].JobID)
	}
	assert.True(t, loaded[2].PostedTime.IsZero())
	assert.Equal(t, []string{"Go", "gRPC"}, loaded[1].TechnologiesRequired)
	assert.Equal(t, models.SalaryAmount(52000), loaded[1].SalaryOffered)
	assert.Equal(t, models.SalaryText("45000 - 60000 YEARLY"), loaded[2].SalaryOffered)
}

func TestLoad_OlderSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	old := `[
    {
        "title": "Développeur Backend",
        "url": "https://www.linkedin.com/jobs/view/123",
        "company": "Acme",
        "posted_time": "2024-01-15T10:20:30.123456",
        "job_id": "123",
        "title_lang": "fr",
        "description_lang": "fr",
        "applicants": 12,
        "salary_offered": 0
    },
    {
        "title": "Broken",
        "job_id": "456",
        "posted_time": 17
    }
]`
	require.NoError(t, os.WriteFile(path, []byte(old), 0644))

	loaded, err := Load(path, logger())
	require.NoError(t, err)
	require.Len(t, loaded, 1, "undecodable records are skipped")

	rec := loaded[0]
	assert.Equal(t, "123", rec.JobID)
	assert.Equal(t, "fr", rec.TitleLanguage)
	assert.Equal(t, "fr", rec.DescriptionLanguage)
	want := time.Date(2024, 1, 15, 10, 20, 30, 123456000, time.Local)
	assert.True(t, want.Equal(rec.PostedTime.Time))
	assert.Equal(t, []string{}, rec.TechnologiesRequired)
	assert.Empty(t, rec.SeniorityLevel)
	assert.Zero(t, rec.ExperienceYearsNeeded)
	assert.True(t, rec.DateAnalyzed.IsZero())
}

func TestLoad_MissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	records, err := Load(filepath.Join(dir, "nope.json"), logger())
	assert.NoError(t, err)
	assert.Empty(t, records)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	records, err = Load(empty, logger())
	assert.NoError(t, err)
	assert.Empty(t, records)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0644))
	_, err = Load(corrupt, logger())
	assert.Error(t, err)
}

func TestSave_EmptyCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, Save(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(raw))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
