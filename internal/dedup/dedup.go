package dedup

import (
	"strings"
	"sync"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"

	"golang.org/x/text/cases"
)

type pairKey struct {
	title   string
	company string
}

// Index remembers which listings were already collected, keyed by job id and
// by the case-folded (title, company) pair. Checks are O(1).
type Index struct {
	mu    sync.RWMutex
	ids   map[string]struct{}
	pairs map[pairKey]struct{}
}

func NewIndex() *Index {
	return &Index{
		ids:   make(map[string]struct{}),
		pairs: make(map[pairKey]struct{}),
	}
}

// Seed indexes records loaded from a previous run.
func (ix *Index) Seed(records []models.JobRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i := range records {
		ix.add(&records[i])
	}
}

// IsDuplicate reports whether rec matches an indexed record by job id or by
// title and company.
func (ix *Index) IsDuplicate(rec *models.JobRecord) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.contains(rec)
}

func (ix *Index) Add(rec *models.JobRecord) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.add(rec)
}

// AddIfNew indexes rec unless it is a duplicate and reports whether it did.
func (ix *Index) AddIfNew(rec *models.JobRecord) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.contains(rec) {
		return false
	}
	ix.add(rec)
	return true
}

// Len is the number of distinct job ids indexed.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}

func (ix *Index) contains(rec *models.JobRecord) bool {
	if id := strings.TrimSpace(rec.JobID); id != "" {
		if _, ok := ix.ids[id]; ok {
			return true
		}
	}
	if key, ok := keyOf(rec); ok {
		if _, exists := ix.pairs[key]; exists {
			return true
		}
	}
	return false
}

func (ix *Index) add(rec *models.JobRecord) {
	if id := strings.TrimSpace(rec.JobID); id != "" {
		ix.ids[id] = struct{}{}
	}
	if key, ok := keyOf(rec); ok {
		ix.pairs[key] = struct{}{}
	}
}

//keyOf has no key when both title and company are blank
func keyOf(rec *models.JobRecord) (pairKey, bool) {
	//cases.Caser is stateful, so each call gets its own
	fold := cases.Fold()
	key := pairKey{
		title:   fold.String(strings.TrimSpace(rec.Title)),
		company: fold.String(strings.TrimSpace(rec.Company)),
	}
	return key, key.title != "" || key.company != ""
}
