package types

import "time"

// EvidenceKind enumerates the kinds of entry the append-only evidence
// ledger accepts (spec.md §3, §4.J).
type EvidenceKind string

const (
	EvidenceClaim         EvidenceKind = "claim"
	EvidenceOutcome       EvidenceKind = "outcome"
	EvidenceCalibration   EvidenceKind = "calibration"
	EvidenceContradiction EvidenceKind = "contradiction"
	EvidenceDefeater      EvidenceKind = "defeater"
	EvidenceObservation   EvidenceKind = "observation"
)

// Provenance names where an evidence entry came from and how it was produced.
type Provenance struct {
	Source string
	Method string
}

// EvidenceEntry is one row in the append-only evidence ledger.
type EvidenceEntry struct {
	ID             int64
	Kind           EvidenceKind
	Payload        string // opaque JSON payload specific to Kind
	Provenance     Provenance
	Timestamp      time.Time
	RelatedEntries []int64
	Confidence     ConfidenceValue
}

// DefeaterStatus tracks the lifecycle of a defeater against a claim.
type DefeaterStatus string

const (
	DefeaterPending  DefeaterStatus = "pending"
	DefeaterActive   DefeaterStatus = "active"
	DefeaterResolved DefeaterStatus = "resolved"
)

// Defeater targets one or more claims, with a status and a damping factor
// applied when walking the support graph (spec.md §4.J).
type Defeater struct {
	ID        int64
	ClaimIDs  []int64
	Status    DefeaterStatus
	Damping   float64
	Rationale string
}

// ContradictionSeverity classifies how serious a detected contradiction is.
type ContradictionSeverity string

const (
	SeverityInfo     ContradictionSeverity = "info"
	SeverityWarning  ContradictionSeverity = "warning"
	SeverityBlocking ContradictionSeverity = "blocking"
)

// Contradiction pairs two claims that cannot both hold.
type Contradiction struct {
	ID        int64
	ClaimA    int64
	ClaimB    int64
	Severity  ContradictionSeverity
	Rationale string
}

// EvidenceChain assembles a claim with everything that supports or defeats it.
type EvidenceChain struct {
	Claim      EvidenceEntry
	Supporting []EvidenceEntry
	Defeating  []EvidenceEntry
}
