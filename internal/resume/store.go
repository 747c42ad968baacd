// Package resume persists test session checkpoints so interrupted runs
// can continue. All checkpoint data goes through an injected key-value
// collaborator; there is no ambient global store, so any backing
// implementation (memory, file, SQLite) can be substituted.
package resume

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/apiprobe/apiprobe/internal/models"
)

const (
	keyPrefix  = "apiprobe:resume:"
	lastRunKey = "apiprobe:resume:last"
)

// Store saves and loads session checkpoints. Persistence failures on
// save degrade gracefully: they are logged and never propagated, leaving
// any prior snapshot intact. The persisted record for a session id is
// single-writer; concurrent sessions must use distinct identifiers.
type Store struct {
	kv  KV
	log logrus.FieldLogger
}

// NewStore creates a checkpoint store on top of the given KV
func NewStore(kv KV, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{kv: kv, log: log}
}

func sessionKey(sessionID string) string {
	return keyPrefix + "session:" + sessionID
}

// Save writes a timestamped checkpoint for the session and records it as
// the most recent one.
func (s *Store) Save(sessionID string, lastCompletedIndex int, cfg models.TestConfig, partial []models.TestResult) {
	data := models.ResumeData{
		SessionID:          sessionID,
		LastCompletedIndex: lastCompletedIndex,
		SavedAt:            time.Now(),
		Config:             cfg,
		PartialResults:     partial,
	}

	raw, err := json.Marshal(data)
	if err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("failed to serialize checkpoint")
		return
	}

	if err := s.kv.Set(sessionKey(sessionID), string(raw)); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("failed to persist checkpoint")
		return
	}

	if err := s.kv.Set(lastRunKey, sessionID); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("failed to update most-recent pointer")
	}
}

// Load returns the checkpoint for the session, or nil when none is
// available. An empty sessionID resolves through the most-recent pointer.
// Absent or corrupt records surface as nil, with the failure logged.
func (s *Store) Load(sessionID string) *models.ResumeData {
	if sessionID == "" {
		last, ok, err := s.kv.Get(lastRunKey)
		if err != nil {
			s.log.WithError(err).Warn("failed to read most-recent pointer")
			return nil
		}
		if !ok || last == "" {
			return nil
		}
		sessionID = last
	}

	raw, ok, err := s.kv.Get(sessionKey(sessionID))
	if err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("failed to read checkpoint")
		return nil
	}
	if !ok {
		return nil
	}

	var data models.ResumeData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("discarding corrupt checkpoint")
		return nil
	}
	if !data.Valid() {
		s.log.WithField("session", sessionID).Warn("discarding checkpoint with inconsistent progress index")
		return nil
	}

	return &data
}

// Clear removes the session's checkpoint. If the most-recent pointer
// references the cleared session it is removed too, so a stale pointer is
// never left behind.
func (s *Store) Clear(sessionID string) {
	if err := s.kv.Remove(sessionKey(sessionID)); err != nil {
		s.log.WithError(err).WithField("session", sessionID).Warn("failed to remove checkpoint")
	}

	last, ok, err := s.kv.Get(lastRunKey)
	if err != nil {
		s.log.WithError(err).Warn("failed to read most-recent pointer")
		return
	}
	if ok && last == sessionID {
		if err := s.kv.Remove(lastRunKey); err != nil {
			s.log.WithError(err).Warn("failed to remove most-recent pointer")
		}
	}
}

// Sessions lists the ids of all persisted checkpoints, when the backing
// KV supports enumeration.
func (s *Store) Sessions() []string {
	lister, ok := s.kv.(Lister)
	if !ok {
		return nil
	}

	keys, err := lister.Keys(keyPrefix + "session:")
	if err != nil {
		s.log.WithError(err).Warn("failed to list checkpoints")
		return nil
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, keyPrefix+"session:"))
	}
	return ids
}
