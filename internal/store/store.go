// Package store is the message store: raw messages are kept as
// content-addressed blobs in a storage driver, with an SQLite index of
// envelope metadata on top.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	pathpkg "path"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"mailstash/internal/database"
	"mailstash/internal/driver"
)

var (
	ErrNotFound = errors.New("message not found")
	ErrCorrupt  = errors.New("stored message does not match recorded digest")
)

type Store struct {
	driver driver.StorageDriver
	db     *database.Database
	log    logrus.FieldLogger
}

func New(d driver.StorageDriver, db *database.Database, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{driver: d, db: db, log: log}
}

// blobPath addresses a blob by its digest, e.g. messages/sha256/<hex>.
func blobPath(dgst digest.Digest) string {
	return pathpkg.Join("messages", dgst.Algorithm().String(), dgst.Encoded())
}

// Put stores a raw message, assigns it a UID and indexes its envelope
// headers. Duplicate content is allowed; each upload gets its own UID while
// sharing the underlying blob.
func (s *Store) Put(ctx context.Context, content []byte) (*database.Message, error) {
	dgst := digest.FromBytes(content)
	if err := s.driver.PutContent(ctx, blobPath(dgst), content); err != nil {
		return nil, fmt.Errorf("store blob %s: %w", dgst, err)
	}

	sender, recipient, subject := parseEnvelope(content)
	uid := uuid.NewString()
	msg, err := s.db.SaveMessage(uid, sender, recipient, subject, dgst.String(), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("index message %s: %w", uid, err)
	}

	s.log.WithFields(logrus.Fields{
		"uid":    uid,
		"digest": dgst.String(),
		"size":   len(content),
	}).Info("message stored")
	return msg, nil
}

// Get returns the indexed metadata and raw content for a message. Content is
// verified against the recorded digest before it is returned.
func (s *Store) Get(ctx context.Context, uid string) (*database.Message, []byte, error) {
	msg, err := s.db.GetMessage(uid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	dgst, err := digest.Parse(msg.Digest)
	if err != nil {
		return nil, nil, fmt.Errorf("parse recorded digest for %s: %w", uid, err)
	}
	content, err := s.driver.GetContent(ctx, blobPath(dgst))
	if err != nil {
		return nil, nil, fmt.Errorf("read blob %s: %w", dgst, err)
	}
	if digest.FromBytes(content) != dgst {
		return nil, nil, ErrCorrupt
	}
	return msg, content, nil
}

// List returns the indexed metadata for all stored messages, newest first.
func (s *Store) List() ([]*database.Message, error) {
	return s.db.GetAllMessages()
}

// Delete removes a message from the index and, when no other message shares
// its blob, from storage.
func (s *Store) Delete(ctx context.Context, uid string) error {
	msg, err := s.db.GetMessage(uid)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := s.db.DeleteMessage(uid); err != nil {
		return err
	}

	if s.blobInUse(msg.Digest) {
		return nil
	}
	dgst, err := digest.Parse(msg.Digest)
	if err != nil {
		return nil
	}
	if err := s.driver.Delete(ctx, blobPath(dgst)); err != nil {
		s.log.WithField("digest", msg.Digest).Warnf("failed to delete blob: %v", err)
	}
	return nil
}

func (s *Store) blobInUse(dgst string) bool {
	messages, err := s.db.GetAllMessages()
	if err != nil {
		return true
	}
	for _, m := range messages {
		if m.Digest == dgst {
			return true
		}
	}
	return false
}

// Stats returns the message count and total indexed size in bytes.
func (s *Store) Stats() (int, int64, error) {
	return s.db.GetStatistics()
}

// parseEnvelope extracts From/To/Subject from the message headers. Messages
// that do not parse as RFC 5322 are still stored, just with empty envelope
// fields.
func parseEnvelope(content []byte) (sender, recipient, subject string) {
	m, err := mail.ReadMessage(bytes.NewReader(content))
	if err != nil {
		return "", "", ""
	}
	return m.Header.Get("From"), m.Header.Get("To"), m.Header.Get("Subject")
}
