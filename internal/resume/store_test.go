package resume

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiprobe/apiprobe/internal/models"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func sampleResults() []models.TestResult {
	return []models.TestResult{
		{
			EndpointName: "get-users",
			Method:       "GET",
			Path:         "/users",
			Category:     "users",
			Status:       models.StatusSuccess,
			StatusCode:   200,
			TotalTimeMs:  120,
			RequestStart: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			EndpointName: "create-user",
			Method:       "POST",
			Path:         "/users",
			Category:     "users",
			Status:       models.StatusError,
			StatusCode:   500,
			Error:        "internal error",
			TotalTimeMs:  340,
			RequestStart: time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(NewMemoryKV(), testLogger())
	cfg := models.TestConfig{BaseURL: "http://localhost:8080", TimeoutMs: 5000, Retries: 2}
	results := sampleResults()

	store.Save("session-1", 2, cfg, results)

	data := store.Load("session-1")
	require.NotNil(t, data)
	assert.Equal(t, "session-1", data.SessionID)
	assert.Equal(t, 2, data.LastCompletedIndex)
	assert.Equal(t, cfg, data.Config)
	require.Len(t, data.PartialResults, 2)
	assert.Equal(t, results[0].EndpointName, data.PartialResults[0].EndpointName)
	assert.Equal(t, results[1].Error, data.PartialResults[1].Error)
	assert.False(t, data.SavedAt.IsZero())
}

func TestLoadResolvesMostRecentPointer(t *testing.T) {
	store := NewStore(NewMemoryKV(), testLogger())
	cfg := models.TestConfig{BaseURL: "http://localhost"}

	store.Save("older", 0, cfg, nil)
	store.Save("newer", 1, cfg, sampleResults())

	data := store.Load("")
	require.NotNil(t, data)
	assert.Equal(t, "newer", data.SessionID)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	store := NewStore(NewMemoryKV(), testLogger())
	assert.Nil(t, store.Load("nope"))
	assert.Nil(t, store.Load(""))
}

func TestLoadCorruptReturnsNil(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(sessionKey("broken"), "{not json"))

	store := NewStore(kv, testLogger())
	assert.Nil(t, store.Load("broken"))
}

func TestLoadRejectsInconsistentIndex(t *testing.T) {
	kv := NewMemoryKV()
	// index beyond the partial result count violates the checkpoint invariant
	require.NoError(t, kv.Set(sessionKey("bad"), `{"sessionId":"bad","lastCompletedIndex":5,"partialResults":[]}`))

	store := NewStore(kv, testLogger())
	assert.Nil(t, store.Load("bad"))
}

func TestClearRemovesRecordAndPointer(t *testing.T) {
	store := NewStore(NewMemoryKV(), testLogger())
	store.Save("session-1", 1, models.TestConfig{}, sampleResults())

	store.Clear("session-1")

	assert.Nil(t, store.Load("session-1"))
	assert.Nil(t, store.Load(""), "most-recent pointer must not survive a clear")
}

func TestClearKeepsForeignPointer(t *testing.T) {
	store := NewStore(NewMemoryKV(), testLogger())
	store.Save("a", 0, models.TestConfig{}, nil)
	store.Save("b", 0, models.TestConfig{}, nil)

	store.Clear("a")

	data := store.Load("")
	require.NotNil(t, data)
	assert.Equal(t, "b", data.SessionID)
}

// failingKV simulates a storage backend that rejects writes, as a full
// quota would.
type failingKV struct {
	*MemoryKV
	failSet bool
}

func (f *failingKV) Set(key, value string) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.MemoryKV.Set(key, value)
}

func TestSaveFailureKeepsPriorSnapshot(t *testing.T) {
	kv := &failingKV{MemoryKV: NewMemoryKV()}
	store := NewStore(kv, testLogger())

	store.Save("session-1", 1, models.TestConfig{}, sampleResults())

	kv.failSet = true
	assert.NotPanics(t, func() {
		store.Save("session-1", 2, models.TestConfig{}, sampleResults())
	})

	data := store.Load("session-1")
	require.NotNil(t, data)
	assert.Equal(t, 1, data.LastCompletedIndex, "prior snapshot must remain intact")
}

func TestSessions(t *testing.T) {
	store := NewStore(NewMemoryKV(), testLogger())
	store.Save("a", 0, models.TestConfig{}, nil)
	store.Save("b", 0, models.TestConfig{}, nil)

	ids := store.Sessions()
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestFileKVRoundTrip(t *testing.T) {
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "store"))
	require.NoError(t, err)

	store := NewStore(kv, testLogger())
	store.Save("file-session", 1, models.TestConfig{BaseURL: "http://x"}, sampleResults())

	data := store.Load("file-session")
	require.NotNil(t, data)
	assert.Equal(t, 1, data.LastCompletedIndex)

	store.Clear("file-session")
	assert.Nil(t, store.Load("file-session"))
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "apiprobe.db"))
	require.NoError(t, err)
	defer kv.Close()

	store := NewStore(kv, testLogger())
	store.Save("db-session", 2, models.TestConfig{Retries: 3}, sampleResults())

	data := store.Load("db-session")
	require.NotNil(t, data)
	assert.Equal(t, 2, data.LastCompletedIndex)
	assert.Equal(t, 3, data.Config.Retries)

	ids := store.Sessions()
	assert.Contains(t, ids, "db-session")

	store.Clear("db-session")
	assert.Nil(t, store.Load("db-session"))
	assert.Nil(t, store.Load(""))
}
