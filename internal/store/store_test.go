package store

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailstash/internal/database"
	"mailstash/internal/driver/local"
)

const rawMessage = "From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: hello\r\n" +
	"\r\n" +
	"Hi Bob.\r\n"

func newTestStore(t *testing.T) (*Store, *local.Driver) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDatabase(filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	d := local.NewDriver(filepath.Join(dir, "blobs"))
	return New(d, db, log), d
}

func TestPutGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	msg, err := s.Put(ctx, []byte(rawMessage))
	require.NoError(t, err)
	assert.NotEmpty(t, msg.UID)
	assert.Equal(t, "alice@example.com", msg.Sender)
	assert.Equal(t, "bob@example.com", msg.Recipient)
	assert.Equal(t, "hello", msg.Subject)
	assert.Equal(t, digest.FromBytes([]byte(rawMessage)).String(), msg.Digest)
	assert.Equal(t, int64(len(rawMessage)), msg.Size)

	got, content, err := s.Get(ctx, msg.UID)
	require.NoError(t, err)
	assert.Equal(t, msg.UID, got.UID)
	assert.Equal(t, rawMessage, string(content))
}

func TestGetUnknownUID(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, err := s.Get(context.Background(), "no-such-uid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetDetectsCorruptBlob(t *testing.T) {
	s, d := newTestStore(t)
	ctx := context.Background()

	msg, err := s.Put(ctx, []byte(rawMessage))
	require.NoError(t, err)

	dgst := digest.FromBytes([]byte(rawMessage))
	require.NoError(t, d.PutContent(ctx, blobPath(dgst), []byte("tampered")))

	_, _, err = s.Get(ctx, msg.UID)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestListNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, []byte(rawMessage))
	require.NoError(t, err)
	second, err := s.Put(ctx, []byte("Subject: two\r\n\r\nbody\r\n"))
	require.NoError(t, err)

	messages, err := s.List()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	uids := []string{messages[0].UID, messages[1].UID}
	assert.Contains(t, uids, first.UID)
	assert.Contains(t, uids, second.UID)
}

func TestDeleteRemovesBlob(t *testing.T) {
	s, d := newTestStore(t)
	ctx := context.Background()

	msg, err := s.Put(ctx, []byte(rawMessage))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, msg.UID))

	_, _, err = s.Get(ctx, msg.UID)
	assert.ErrorIs(t, err, ErrNotFound)

	dgst := digest.FromBytes([]byte(rawMessage))
	_, err = d.GetContent(ctx, blobPath(dgst))
	assert.Error(t, err)
}

func TestDeleteKeepsSharedBlob(t *testing.T) {
	s, d := newTestStore(t)
	ctx := context.Background()

	one, err := s.Put(ctx, []byte(rawMessage))
	require.NoError(t, err)
	two, err := s.Put(ctx, []byte(rawMessage))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, one.UID))

	_, content, err := s.Get(ctx, two.UID)
	require.NoError(t, err)
	assert.Equal(t, rawMessage, string(content))

	dgst := digest.FromBytes([]byte(rawMessage))
	_, err = d.GetContent(ctx, blobPath(dgst))
	assert.NoError(t, err)
}

func TestDeleteUnknownUID(t *testing.T) {
	s, _ := newTestStore(t)
	assert.ErrorIs(t, s.Delete(context.Background(), "no-such-uid"), ErrNotFound)
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.Put(ctx, []byte(rawMessage))
	require.NoError(t, err)

	count, size, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(len(rawMessage)), size)
}

func TestPutNonMailContent(t *testing.T) {
	s, _ := newTestStore(t)

	msg, err := s.Put(context.Background(), []byte("not an email at all"))
	require.NoError(t, err)
	assert.Empty(t, msg.Sender)
	assert.Empty(t, msg.Recipient)
	assert.Empty(t, msg.Subject)
}
