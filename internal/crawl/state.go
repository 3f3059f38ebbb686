package crawl

import (
	"sync"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/dedup"
	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

// Admission is the result of offering a record to the State.
type Admission int

const (
	Admitted Admission = iota
	Duplicate
	QuotaFull
)

// State is the shared, append-only result of one crawl run. It is safe for
// concurrent use; the global quota and dedup are checked atomically with the
// append.
type State struct {
	mu        sync.Mutex
	startedAt time.Time
	maxJobs   int
	records   []models.JobRecord
	seeded    int
	index     *dedup.Index
	tokens    int
}

// NewState seeds the collection with records from a previous run. Seeded
// records take part in dedup but do not count toward maxJobs. startedAt is
// the single "now" every relative timestamp of this run is resolved against.
func NewState(maxJobs int, seed []models.JobRecord, startedAt time.Time) *State {
	s := &State{
		startedAt: startedAt,
		maxJobs:   maxJobs,
		index:     dedup.NewIndex(),
		records:   make([]models.JobRecord, 0, len(seed)),
	}
	for i := range seed {
		s.records = append(s.records, seed[i].Clone())
	}
	s.seeded = len(s.records)
	s.index.Seed(s.records)
	return s
}

func (s *State) StartedAt() time.Time {
	return s.startedAt
}

func (s *State) IsDuplicate(rec *models.JobRecord) bool {
	return s.index.IsDuplicate(rec)
}

// Admit appends a copy of rec unless the global quota is met or rec is a
// duplicate.
func (s *State) Admit(rec *models.JobRecord) Admission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.admittedLocked() >= s.maxJobs {
		return QuotaFull
	}
	if !s.index.AddIfNew(rec) {
		return Duplicate
	}
	s.records = append(s.records, rec.Clone())
	return Admitted
}

func (s *State) QuotaReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admittedLocked() >= s.maxJobs
}

// AdmittedThisRun counts records added since the state was created.
func (s *State) AdmittedThisRun() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admittedLocked()
}

func (s *State) AddTokens(n int) {
	s.mu.Lock()
	s.tokens += n
	s.mu.Unlock()
}

func (s *State) Tokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Records returns a copy of the whole collection, seeded records first.
func (s *State) Records() []models.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.records)
}

// NewRecords returns a copy of the records admitted during this run.
func (s *State) NewRecords() []models.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.records[s.seeded:])
}

func (s *State) admittedLocked() int {
	return len(s.records) - s.seeded
}

func cloneAll(records []models.JobRecord) []models.JobRecord {
	out := make([]models.JobRecord, len(records))
	for i := range records {
		out[i] = records[i].Clone()
	}
	return out
}
