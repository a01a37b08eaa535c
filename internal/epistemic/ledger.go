// Package epistemic implements the Epistemic Layer (spec.md §4.J): the
// evidence ledger API, defeater and contradiction management, a damped
// support-graph walk for foundationality/epistemic-load, and a
// calibration tracker (ECE, Brier, trend). The confidence algebra itself
// lives in internal/types/confidence.go; this package wraps it with the
// append-only ledger operations the specification names. Grounded on the
// teacher's northstar package's event-accounting style (typed records,
// monotonic ids, small pure combinators).
package epistemic

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

var validEvidenceKinds = map[types.EvidenceKind]bool{
	types.EvidenceClaim:         true,
	types.EvidenceOutcome:       true,
	types.EvidenceCalibration:   true,
	types.EvidenceContradiction: true,
	types.EvidenceDefeater:      true,
	types.EvidenceObservation:   true,
}

// ValidateEvidenceEntry checks an entry's shape before it is appended to
// the ledger or persisted durably (spec.md §4.J). Callers writing to
// either the in-process Ledger or internal/store's evidence_ledger table
// should validate first, since Ledger.Append and store.AppendEvidence
// themselves accept any entry handed to them.
func ValidateEvidenceEntry(e types.EvidenceEntry) error {
	if !validEvidenceKinds[e.Kind] {
		return apperrors.New(apperrors.CodeEvidenceInvalidKind, "unknown evidence kind: "+string(e.Kind))
	}
	if e.Payload == "" {
		return apperrors.New(apperrors.CodeEvidenceInvalidPayload, "evidence payload must not be empty")
	}
	return nil
}

// NormalizeClaim applies Unicode NFC normalization to a claim proposition
// or subject id so that visually identical strings compare equal (spec.md
// §4.J — "café and cafe´ unify").
func NormalizeClaim(s string) string {
	return norm.NFC.String(s)
}

// Ledger is the append-only evidence store backing the epistemic layer.
// It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	entries []types.EvidenceEntry
	nextID  int64

	defeaters      map[int64]*types.Defeater
	nextDefeaterID int64

	contradictions      map[int64]*types.Contradiction
	nextContradictionID int64
}

// NewLedger returns an empty evidence ledger.
func NewLedger() *Ledger {
	return &Ledger{
		defeaters:      make(map[int64]*types.Defeater),
		contradictions: make(map[int64]*types.Contradiction),
	}
}

// Append assigns a monotonic id and wall-clock timestamp to entry and
// records it. Claim-shaped payloads should be normalized by the caller
// via NormalizeClaim before appending.
func (l *Ledger) Append(entry types.EvidenceEntry) types.EvidenceEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	entry.ID = l.nextID
	entry.Timestamp = time.Now()
	l.entries = append(l.entries, entry)
	return entry
}

// QueryFilter restricts Query results.
type QueryFilter struct {
	Kinds     []types.EvidenceKind
	TimeStart time.Time
	TimeEnd   time.Time
	Limit     int
}

func kindAllowed(kinds []types.EvidenceKind, k types.EvidenceKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, allowed := range kinds {
		if allowed == k {
			return true
		}
	}
	return false
}

// Query returns entries matching filter, newest first.
func (l *Ledger) Query(filter QueryFilter) []types.EvidenceEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	matches := make([]types.EvidenceEntry, 0)
	for _, e := range l.entries {
		if !kindAllowed(filter.Kinds, e.Kind) {
			continue
		}
		if !filter.TimeStart.IsZero() && e.Timestamp.Before(filter.TimeStart) {
			continue
		}
		if !filter.TimeEnd.IsZero() && e.Timestamp.After(filter.TimeEnd) {
			continue
		}
		matches = append(matches, e)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID > matches[j].ID })
	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}
	return matches
}

// Get returns the entry with the given id.
func (l *Ledger) Get(id int64) (types.EvidenceEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return types.EvidenceEntry{}, false
}

// GetChain assembles a claim with everything supporting or defeating it,
// per spec.md §4.J. Every other ledger entry listing claimID in its
// RelatedEntries is included: contradiction and defeater entries go to
// Defeating, all other kinds to Supporting. Defeaters registered through
// AddDefeater are not consulted, and only direct links are followed.
func (l *Ledger) GetChain(claimID int64) (types.EvidenceChain, bool) {
	claim, ok := l.Get(claimID)
	if !ok {
		return types.EvidenceChain{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var supporting, defeating []types.EvidenceEntry
	for _, e := range l.entries {
		if e.ID == claimID {
			continue
		}
		for _, related := range e.RelatedEntries {
			if related == claimID {
				if e.Kind == types.EvidenceContradiction || e.Kind == types.EvidenceDefeater {
					defeating = append(defeating, e)
				} else {
					supporting = append(supporting, e)
				}
				break
			}
		}
	}
	return types.EvidenceChain{Claim: claim, Supporting: supporting, Defeating: defeating}, true
}

// AddDefeater registers a new defeater against one or more claims.
func (l *Ledger) AddDefeater(d types.Defeater) types.Defeater {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextDefeaterID++
	d.ID = l.nextDefeaterID
	if d.Status == "" {
		d.Status = types.DefeaterPending
	}
	l.defeaters[d.ID] = &d
	return d
}

// SetDefeaterStatus transitions a defeater's lifecycle status.
func (l *Ledger) SetDefeaterStatus(id int64, status types.DefeaterStatus) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.defeaters[id]
	if !ok {
		return false
	}
	d.Status = status
	return true
}

// DefeatersFor returns the active defeaters targeting claimID.
func (l *Ledger) DefeatersFor(claimID int64) []types.Defeater {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []types.Defeater
	for _, d := range l.defeaters {
		if d.Status != types.DefeaterActive {
			continue
		}
		for _, c := range d.ClaimIDs {
			if c == claimID {
				out = append(out, *d)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddContradiction registers a contradiction between two claims.
func (l *Ledger) AddContradiction(c types.Contradiction) types.Contradiction {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextContradictionID++
	c.ID = l.nextContradictionID
	l.contradictions[c.ID] = &c
	return c
}

// Contradictions returns every contradiction involving claimID.
func (l *Ledger) Contradictions(claimID int64) []types.Contradiction {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []types.Contradiction
	for _, c := range l.contradictions {
		if c.ClaimA == claimID || c.ClaimB == claimID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
