package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateschmiedehaus/librarian-sub012/internal/apperrors"
	"github.com/nateschmiedehaus/librarian-sub012/internal/types"
)

func TestStartRejectsBeyondMaxSessions(t *testing.T) {
	m := NewManager(ManagerConfig{MaxSessions: 1})

	_, err := m.Start(time.Now())
	require.NoError(t, err)

	_, err = m.Start(time.Now())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeContextSessionLimitExceeded, apperrors.CodeOf(err))
}

func TestStartReusesSlotAfterTTLExpiry(t *testing.T) {
	m := NewManager(ManagerConfig{MaxSessions: 1, SessionTTL: time.Millisecond})

	_, err := m.Start(time.Now())
	require.NoError(t, err)

	_, err = m.Start(time.Now().Add(time.Hour))
	assert.NoError(t, err)
}

func TestFollowupRejectsBlankQuestion(t *testing.T) {
	m := NewManager(ManagerConfig{})
	s, err := m.Start(time.Now())
	require.NoError(t, err)

	_, _, err = m.Followup(s.ID, "   ", func(Session) ([]types.ContextPack, interface{}, error) {
		return nil, nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeContextSessionQuestionInvalid, apperrors.CodeOf(err))
}

func TestFollowupRejectsUnknownSession(t *testing.T) {
	m := NewManager(ManagerConfig{})
	_, _, err := m.Followup("does-not-exist", "hello", func(Session) ([]types.ContextPack, interface{}, error) {
		return nil, nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeContextSessionMissing, apperrors.CodeOf(err))
}

func TestFollowupAccumulatesPacksAcrossCalls(t *testing.T) {
	m := NewManager(ManagerConfig{})
	s, err := m.Start(time.Now())
	require.NoError(t, err)

	_, _, err = m.Followup(s.ID, "first question", func(Session) ([]types.ContextPack, interface{}, error) {
		return []types.ContextPack{{PackID: "a"}}, nil, nil
	})
	require.NoError(t, err)

	_, _, err = m.Followup(s.ID, "second question", func(Session) ([]types.ContextPack, interface{}, error) {
		return []types.ContextPack{{PackID: "b"}}, nil, nil
	})
	require.NoError(t, err)

	snap, err := m.Snapshot(s.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Packs, 2)
	assert.Equal(t, []string{"first question", "second question"}, snap.History)
}

func TestFollowupFailureDoesNotMutateSession(t *testing.T) {
	m := NewManager(ManagerConfig{})
	s, err := m.Start(time.Now())
	require.NoError(t, err)

	_, _, err = m.Followup(s.ID, "a question", func(Session) ([]types.ContextPack, interface{}, error) {
		return nil, nil, assert.AnError
	})
	require.Error(t, err)

	snap, err := m.Snapshot(s.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Packs)
	assert.Empty(t, snap.History)
}

func TestFollowupRejectsOverPackLimit(t *testing.T) {
	m := NewManager(ManagerConfig{MaxPacksPerSession: 1})
	s, err := m.Start(time.Now())
	require.NoError(t, err)

	_, _, err = m.Followup(s.ID, "a question", func(Session) ([]types.ContextPack, interface{}, error) {
		return []types.ContextPack{{PackID: "a"}, {PackID: "b"}}, nil, nil
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeContextSessionPackLimitExceeded, apperrors.CodeOf(err))

	snap, err := m.Snapshot(s.ID)
	require.NoError(t, err)
	assert.Empty(t, snap.Packs)
}

func TestStatsReportsActiveSessionCount(t *testing.T) {
	m := NewManager(ManagerConfig{MaxSessions: 5})
	_, err := m.Start(time.Now())
	require.NoError(t, err)

	stats := m.Stats()
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 5, stats.MaxSessions)
}
