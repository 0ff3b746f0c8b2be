package index

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/wharfd/wharfd/pkg/errdefs"
)

// InsertSession creates a new open session node. The root node of a chain
// has no previous session and starting byte index zero.
func (t *Tx) InsertSession(ctx context.Context, repository string, previous *uuid.UUID, startingByteIndex int64) (UploadSession, error) {
	s := UploadSession{
		ID:                uuid.New(),
		Repository:        repository,
		PreviousSession:   previous,
		StartingByteIndex: startingByteIndex,
		CreatedAt:         t.idx.clock.Now().UTC(),
	}
	var prev any
	if previous != nil {
		prev = previous.String()
	}
	_, err := t.exec(ctx, `
INSERT INTO upload_session(id, repository, previous_session, starting_byte_index, is_finished, created_at)
VALUES                    (?,  ?,          ?,                ?,                   0,           ?)`,
		s.ID, s.Repository, prev, s.StartingByteIndex, s.CreatedAt)
	if err != nil {
		return UploadSession{}, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return s, nil
}

// FindSession returns the session with the given id in the repository, or
// nil when absent.
func (t *Tx) FindSession(ctx context.Context, repository string, id uuid.UUID) (*UploadSession, error) {
	row := t.queryRow(ctx, `
SELECT id, repository, previous_session, digest, starting_byte_index, is_finished, created_at
FROM upload_session
WHERE id = ? AND repository = ?`, id, repository)
	return scanSession(row)
}

// FindSessionByPrevious returns the successor of the given session node, or
// nil when the node is the terminal one.
func (t *Tx) FindSessionByPrevious(ctx context.Context, repository string, previous uuid.UUID) (*UploadSession, error) {
	row := t.queryRow(ctx, `
SELECT id, repository, previous_session, digest, starting_byte_index, is_finished, created_at
FROM upload_session
WHERE previous_session = ? AND repository = ?`, previous, repository)
	return scanSession(row)
}

// SetSessionDigest records the chunk digest on an open session node. The
// update is guarded on the digest still being unset so that of two racing
// appends exactly one wins; the return value reports whether this caller won.
func (t *Tx) SetSessionDigest(ctx context.Context, id uuid.UUID, dgst string) (bool, error) {
	res, err := t.exec(ctx, `
UPDATE upload_session
SET digest = ?
WHERE id = ? AND digest IS NULL`, dgst, id)
	if err != nil {
		return false, errdefs.NewE(errdefs.ErrSystem, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errdefs.NewE(errdefs.ErrSystem, err)
	}
	return n == 1, nil
}

// SetSessionFinished marks the session node finished.
func (t *Tx) SetSessionFinished(ctx context.Context, repository string, id uuid.UUID) error {
	_, err := t.exec(ctx, `
UPDATE upload_session
SET is_finished = 1
WHERE id = ? AND repository = ?`, id, repository)
	if err != nil {
		return errdefs.NewE(errdefs.ErrSystem, err)
	}
	return nil
}

func scanSession(row *sql.Row) (*UploadSession, error) {
	var (
		s        UploadSession
		previous sql.NullString
		dgst     sql.NullString
	)
	err := row.Scan(&s.ID, &s.Repository, &previous, &dgst, &s.StartingByteIndex, &s.IsFinished, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errdefs.NewE(errdefs.ErrSystem, err)
	}
	if previous.Valid {
		id, err := uuid.Parse(previous.String)
		if err != nil {
			return nil, errdefs.Newf(errdefs.ErrInvalidState, "malformed previous session id %q", previous.String)
		}
		s.PreviousSession = &id
	}
	if dgst.Valid {
		s.Digest = &dgst.String
	}
	return &s, nil
}
