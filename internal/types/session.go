package types

import "time"

// Session accumulates packs across follow-ups and drill-downs for one
// conversational thread with the engine (spec.md §3, §4.H).
type Session struct {
	SessionID       string
	History         []string
	Packs           []ContextPack
	ExploredEntities map[string]bool
	FocusArea       string
	CreatedAt       time.Time
	LastActivityAt  time.Time
}
