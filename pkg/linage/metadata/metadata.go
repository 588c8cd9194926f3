// Package metadata implements the transactional record store backing
// commits, branches, snapshots, file records, line changes, remotes,
// AI-activity notes, and merge conflicts.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/antgroup/linage/modules/plumbing"
	"github.com/antgroup/linage/pkg/linage/errs"
	"github.com/antgroup/linage/pkg/linage/object"
	"github.com/go-sql-driver/mysql"
)

const erDupEntry = 1062

// Store is a MySQL-backed MetadataStore. All mutating operations run inside
// a transaction; reads take no explicit locks.
type Store struct {
	db *sql.DB
}

// Open connects using cfg and returns a Store. Call ApplySchema once per
// fresh database before use.
func Open(cfg *mysql.Config) (*Store, error) {
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", "connect", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxIdleConns(25)
	db.SetMaxOpenConns(50)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ApplySchema creates every table this package needs, idempotently.
func (s *Store) ApplySchema(ctx context.Context) error {
	for _, stmt := range splitStatements(schema) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errs.New(errs.IoError, "metadata", "apply_schema", err)
		}
	}
	return nil
}

func splitStatements(s string) []string {
	var out []string
	var cur []byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ';' {
			if trimmed := trimSpace(string(cur)); trimmed != "" {
				out = append(out, trimmed)
			}
			cur = cur[:0]
			continue
		}
		cur = append(cur, c)
	}
	if trimmed := trimSpace(string(cur)); trimmed != "" {
		out = append(out, trimmed)
	}
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isDupEntry(err error) bool {
	var merr *mysql.MySQLError
	return errors.As(err, &merr) && merr.Number == erDupEntry
}

// SaveCommit upserts a commit, its parent links, and its embedded snapshot
// in one transaction.
func (s *Store) SaveCommit(ctx context.Context, c *object.Commit) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.IoError, "metadata", "save_commit", err)
	}
	defer func() { _ = tx.Rollback() }()

	snapshotID, err := saveSnapshotTx(ctx, tx, c.Snapshot)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO commits (id, digest, message, author_name, author_email, timestamp, snapshot_id, ai_assisted)
		 VALUES (?,?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE message=VALUES(message)`,
		c.ID, c.Digest.String(), c.Message, c.AuthorName, c.AuthorEmail, c.Timestamp.UnixNano(), snapshotID, c.AIAssisted)
	if isDupEntry(err) {
		return errs.New(errs.UniqueViolation, "metadata", c.Digest.String(), err)
	}
	if err != nil {
		return errs.New(errs.IoError, "metadata", c.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM commit_parents WHERE commit_id = ?`, c.ID); err != nil {
		return errs.New(errs.IoError, "metadata", c.ID, err)
	}
	for i, p := range c.Parents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO commit_parents (commit_id, parent_id, ordinal) VALUES (?,?,?)`, c.ID, p, i); err != nil {
			return errs.New(errs.IoError, "metadata", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.New(errs.TransactionAborted, "metadata", c.ID, err)
	}
	return nil
}

func saveSnapshotTx(ctx context.Context, tx *sql.Tx, snap object.Snapshot) (int64, error) {
	var snapshotID int64
	if snap.ID != 0 {
		snapshotID = snap.ID
		if _, err := tx.ExecContext(ctx, `INSERT IGNORE INTO snapshots (id, timestamp) VALUES (?,?)`, snap.ID, snap.Timestamp.UnixNano()); err != nil {
			return 0, errs.New(errs.IoError, "metadata", "snapshot", err)
		}
	} else {
		result, err := tx.ExecContext(ctx, `INSERT INTO snapshots (timestamp) VALUES (?)`, snap.Timestamp.UnixNano())
		if err != nil {
			return 0, errs.New(errs.IoError, "metadata", "snapshot", err)
		}
		snapshotID, _ = result.LastInsertId()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM file_records WHERE snapshot_id = ?`, snapshotID); err != nil {
		return 0, errs.New(errs.IoError, "metadata", "snapshot", err)
	}
	for _, f := range snap.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO file_records (snapshot_id, path, digest, size, modified_at, deleted) VALUES (?,?,?,?,?,?)`,
			snapshotID, f.Path, f.Digest.String(), f.Size, f.ModifiedAt, f.Deleted); err != nil {
			return 0, errs.New(errs.IoError, "metadata", "snapshot", err)
		}
	}
	return snapshotID, nil
}

// GetCommit loads a commit by id, eagerly loading its parent list and its
// snapshot's file records. These come from separate queries (commit row,
// parent links, snapshot row, file records), not from a single round trip.
func (s *Store) GetCommit(ctx context.Context, id string) (*object.Commit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, digest, message, author_name, author_email, timestamp, snapshot_id, ai_assisted FROM commits WHERE id = ?`, id)
	return s.scanCommit(ctx, row, id)
}

// GetCommitByDigest loads a commit by its content digest.
func (s *Store) GetCommitByDigest(ctx context.Context, digest plumbing.Digest) (*object.Commit, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, digest, message, author_name, author_email, timestamp, snapshot_id, ai_assisted FROM commits WHERE digest = ?`, digest.String())
	return s.scanCommit(ctx, row, digest.String())
}

func (s *Store) scanCommit(ctx context.Context, row *sql.Row, subject string) (*object.Commit, error) {
	var c object.Commit
	var digestHex string
	var snapshotID int64
	var tsNano int64
	if err := row.Scan(&c.ID, &digestHex, &c.Message, &c.AuthorName, &c.AuthorEmail, &tsNano, &snapshotID, &c.AIAssisted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.New(errs.NotFound, "metadata", subject, err)
		}
		return nil, errs.New(errs.IoError, "metadata", subject, err)
	}
	c.Digest = plumbing.NewDigest(digestHex)
	c.Timestamp = time.Unix(0, tsNano).UTC()

	parents, err := s.loadParents(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Parents = parents

	snap, err := s.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	c.Snapshot = *snap
	return &c, nil
}

func (s *Store) loadParents(ctx context.Context, commitID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT parent_id FROM commit_parents WHERE commit_id = ? ORDER BY ordinal`, commitID)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", commitID, err)
	}
	defer rows.Close()
	var parents []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errs.New(errs.IoError, "metadata", commitID, err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// ExistsCommitDigest reports whether a commit with the given digest exists.
func (s *Store) ExistsCommitDigest(ctx context.Context, digest plumbing.Digest) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits WHERE digest = ?`, digest.String()).Scan(&count)
	if err != nil {
		return false, errs.New(errs.IoError, "metadata", digest.String(), err)
	}
	return count > 0, nil
}

// ListCommits returns every commit, unordered.
func (s *Store) ListCommits(ctx context.Context) ([]*object.Commit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM commits`)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", "list_commits", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.New(errs.IoError, "metadata", "list_commits", err)
		}
		ids = append(ids, id)
	}
	return s.loadCommits(ctx, ids)
}

// CommitsByAuthor returns every commit by the named author, ordered by
// timestamp descending.
func (s *Store) CommitsByAuthor(ctx context.Context, name string) ([]*object.Commit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM commits WHERE author_name = ? ORDER BY timestamp DESC`, name)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", name, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.New(errs.IoError, "metadata", name, err)
		}
		ids = append(ids, id)
	}
	return s.loadCommits(ctx, ids)
}

// CommitsByDateRange returns every commit with a timestamp within
// [start, end], ordered by timestamp ascending.
func (s *Store) CommitsByDateRange(ctx context.Context, start, end time.Time) ([]*object.Commit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM commits WHERE timestamp BETWEEN ? AND ? ORDER BY timestamp ASC`, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", "by_date_range", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.New(errs.IoError, "metadata", "by_date_range", err)
		}
		ids = append(ids, id)
	}
	return s.loadCommits(ctx, ids)
}

func (s *Store) loadCommits(ctx context.Context, ids []string) ([]*object.Commit, error) {
	commits := make([]*object.Commit, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCommit(ctx, id)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// SaveBranch upserts a branch.
func (s *Store) SaveBranch(ctx context.Context, b *object.Branch) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO branches (name, head, active, created_at) VALUES (?,?,?,?)
		 ON DUPLICATE KEY UPDATE head = VALUES(head), active = VALUES(active)`,
		b.Name, b.Head, b.Active, b.CreatedAt)
	if err != nil {
		return errs.New(errs.IoError, "metadata", b.Name, err)
	}
	if b.ID == 0 {
		if id, err := result.LastInsertId(); err == nil && id != 0 {
			b.ID = id
		}
	}
	return nil
}

// GetBranch loads a branch by name.
func (s *Store) GetBranch(ctx context.Context, name string) (*object.Branch, error) {
	var b object.Branch
	b.Name = name
	err := s.db.QueryRowContext(ctx, `SELECT id, head, active, created_at FROM branches WHERE name = ?`, name).
		Scan(&b.ID, &b.Head, &b.Active, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "metadata", name, err)
	}
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", name, err)
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

// ListBranches returns every branch.
func (s *Store) ListBranches(ctx context.Context) ([]*object.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, head, active, created_at FROM branches`)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", "list_branches", err)
	}
	defer rows.Close()
	var branches []*object.Branch
	for rows.Next() {
		var b object.Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Head, &b.Active, &b.CreatedAt); err != nil {
			return nil, errs.New(errs.IoError, "metadata", "list_branches", err)
		}
		b.CreatedAt = b.CreatedAt.UTC()
		branches = append(branches, &b)
	}
	return branches, rows.Err()
}

// DeleteBranch removes a branch by name.
func (s *Store) DeleteBranch(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM branches WHERE name = ?`, name)
	if err != nil {
		return errs.New(errs.IoError, "metadata", name, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "metadata", name, fmt.Errorf("branch not found"))
	}
	return nil
}

// GetSnapshot loads a snapshot, eagerly loading its file records.
func (s *Store) GetSnapshot(ctx context.Context, id int64) (*object.Snapshot, error) {
	var snap object.Snapshot
	var tsNano int64
	err := s.db.QueryRowContext(ctx, `SELECT id, timestamp FROM snapshots WHERE id = ?`, id).Scan(&snap.ID, &tsNano)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "metadata", fmt.Sprintf("snapshot:%d", id), err)
	}
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", fmt.Sprintf("snapshot:%d", id), err)
	}
	snap.Timestamp = time.Unix(0, tsNano).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, digest, size, modified_at, deleted FROM file_records WHERE snapshot_id = ? ORDER BY path`, id)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", fmt.Sprintf("snapshot:%d", id), err)
	}
	defer rows.Close()
	for rows.Next() {
		var f object.FileRecord
		var digestHex string
		if err := rows.Scan(&f.ID, &f.Path, &digestHex, &f.Size, &f.ModifiedAt, &f.Deleted); err != nil {
			return nil, errs.New(errs.IoError, "metadata", fmt.Sprintf("snapshot:%d", id), err)
		}
		f.Digest = plumbing.NewDigest(digestHex)
		f.ModifiedAt = f.ModifiedAt.UTC()
		snap.Files = append(snap.Files, f)
	}
	return &snap, rows.Err()
}

// GetFileRecordByPath returns the most recent file record for path within
// snapshotID.
func (s *Store) GetFileRecordByPath(ctx context.Context, snapshotID int64, path string) (*object.FileRecord, error) {
	var f object.FileRecord
	var digestHex string
	f.Path = path
	err := s.db.QueryRowContext(ctx,
		`SELECT id, digest, size, modified_at, deleted FROM file_records WHERE snapshot_id = ? AND path = ?`, snapshotID, path).
		Scan(&f.ID, &digestHex, &f.Size, &f.ModifiedAt, &f.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "metadata", path, err)
	}
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", path, err)
	}
	f.Digest = plumbing.NewDigest(digestHex)
	f.ModifiedAt = f.ModifiedAt.UTC()
	return &f, nil
}

// GetFileRecordByHash returns any file record whose digest matches hash.
func (s *Store) GetFileRecordByHash(ctx context.Context, hash plumbing.Digest) (*object.FileRecord, error) {
	var f object.FileRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, path, size, modified_at, deleted FROM file_records WHERE digest = ? LIMIT 1`, hash.String()).
		Scan(&f.ID, &f.Path, &f.Size, &f.ModifiedAt, &f.Deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "metadata", hash.String(), err)
	}
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", hash.String(), err)
	}
	f.Digest = hash
	f.ModifiedAt = f.ModifiedAt.UTC()
	return &f, nil
}

// BatchSaveLineChanges persists every LineChange in one transaction.
func (s *Store) BatchSaveLineChanges(ctx context.Context, changes []object.LineChange) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.New(errs.IoError, "metadata", "line_changes", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range changes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO line_changes (commit_id, line_number, old_digest, new_digest, type, timestamp) VALUES (?,?,?,?,?,?)`,
			c.CommitID, c.LineNumber, c.OldDigest.String(), c.NewDigest.String(), string(c.Type), c.Timestamp.UnixNano()); err != nil {
			return errs.New(errs.IoError, "metadata", "line_changes", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.New(errs.TransactionAborted, "metadata", "line_changes", err)
	}
	return nil
}

// LineChangesByCommit returns every LineChange for commitID ordered by line
// number.
func (s *Store) LineChangesByCommit(ctx context.Context, commitID string) ([]object.LineChange, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, line_number, old_digest, new_digest, type, timestamp FROM line_changes WHERE commit_id = ? ORDER BY line_number`, commitID)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", commitID, err)
	}
	defer rows.Close()
	var changes []object.LineChange
	for rows.Next() {
		var c object.LineChange
		var oldHex, newHex, typ string
		var tsNano int64
		if err := rows.Scan(&c.ID, &c.LineNumber, &oldHex, &newHex, &typ, &tsNano); err != nil {
			return nil, errs.New(errs.IoError, "metadata", commitID, err)
		}
		c.CommitID = commitID
		c.OldDigest = plumbing.NewDigest(oldHex)
		c.NewDigest = plumbing.NewDigest(newHex)
		c.Type = object.ChangeType(typ)
		c.Timestamp = time.Unix(0, tsNano).UTC()
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// SaveRemote upserts a remote.
func (s *Store) SaveRemote(ctx context.Context, r *object.Remote) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO remotes (name, url, protocol, is_default, project_id) VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE url = VALUES(url), protocol = VALUES(protocol), is_default = VALUES(is_default), project_id = VALUES(project_id)`,
		r.Name, r.URL, string(r.Protocol), r.IsDefault, r.ProjectID)
	if err != nil {
		return errs.New(errs.IoError, "metadata", r.Name, err)
	}
	return nil
}

// GetRemote loads a remote by name.
func (s *Store) GetRemote(ctx context.Context, name string) (*object.Remote, error) {
	var r object.Remote
	r.Name = name
	var protocol string
	err := s.db.QueryRowContext(ctx, `SELECT url, protocol, is_default, project_id FROM remotes WHERE name = ?`, name).
		Scan(&r.URL, &protocol, &r.IsDefault, &r.ProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.NotFound, "metadata", name, err)
	}
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", name, err)
	}
	r.Protocol = object.Protocol(protocol)
	return &r, nil
}

// ListRemotes returns every remote.
func (s *Store) ListRemotes(ctx context.Context) ([]*object.Remote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, url, protocol, is_default, project_id FROM remotes`)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", "list_remotes", err)
	}
	defer rows.Close()
	var remotes []*object.Remote
	for rows.Next() {
		var r object.Remote
		var protocol string
		if err := rows.Scan(&r.Name, &r.URL, &protocol, &r.IsDefault, &r.ProjectID); err != nil {
			return nil, errs.New(errs.IoError, "metadata", "list_remotes", err)
		}
		r.Protocol = object.Protocol(protocol)
		remotes = append(remotes, &r)
	}
	return remotes, rows.Err()
}

// DeleteRemote removes a remote by name.
func (s *Store) DeleteRemote(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM remotes WHERE name = ?`, name)
	if err != nil {
		return errs.New(errs.IoError, "metadata", name, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "metadata", name, fmt.Errorf("remote not found"))
	}
	return nil
}

// SaveAIActivity persists an AI-assistance note.
func (s *Store) SaveAIActivity(ctx context.Context, a *object.AIActivity) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_activity (commit_id, note, timestamp) VALUES (?,?,?)`, a.CommitID, a.Note, a.Timestamp.UnixNano())
	if err != nil {
		return errs.New(errs.IoError, "metadata", a.CommitID, err)
	}
	a.ID, _ = result.LastInsertId()
	return nil
}

// AIActivityByCommit returns every AI-activity note for commitID.
func (s *Store) AIActivityByCommit(ctx context.Context, commitID string) ([]object.AIActivity, error) {
	return s.queryAIActivity(ctx, `SELECT id, commit_id, note, timestamp FROM ai_activity WHERE commit_id = ? ORDER BY timestamp`, commitID)
}

// RecentAIActivity returns the n most recent AI-activity notes.
func (s *Store) RecentAIActivity(ctx context.Context, n int) ([]object.AIActivity, error) {
	return s.queryAIActivity(ctx, `SELECT id, commit_id, note, timestamp FROM ai_activity ORDER BY timestamp DESC LIMIT ?`, n)
}

func (s *Store) queryAIActivity(ctx context.Context, query string, arg any) ([]object.AIActivity, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", "ai_activity", err)
	}
	defer rows.Close()
	var activity []object.AIActivity
	for rows.Next() {
		var a object.AIActivity
		var tsNano int64
		if err := rows.Scan(&a.ID, &a.CommitID, &a.Note, &tsNano); err != nil {
			return nil, errs.New(errs.IoError, "metadata", "ai_activity", err)
		}
		a.Timestamp = time.Unix(0, tsNano).UTC()
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

// SaveConflict persists a merge conflict.
func (s *Store) SaveConflict(ctx context.Context, c *object.Conflict) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO conflicts (path, base_text, local_text, remote_text, resolved, resolved_text) VALUES (?,?,?,?,?,?)`,
		c.Path, c.BaseText, c.LocalText, c.RemoteText, c.Resolved, c.ResolvedText)
	if err != nil {
		return errs.New(errs.IoError, "metadata", c.Path, err)
	}
	c.ID, _ = result.LastInsertId()
	return nil
}

// ListUnresolvedConflicts returns every conflict not yet resolved.
func (s *Store) ListUnresolvedConflicts(ctx context.Context) ([]object.Conflict, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, base_text, local_text, remote_text, resolved, resolved_text FROM conflicts WHERE resolved = FALSE`)
	if err != nil {
		return nil, errs.New(errs.IoError, "metadata", "unresolved_conflicts", err)
	}
	defer rows.Close()
	var conflicts []object.Conflict
	for rows.Next() {
		var c object.Conflict
		if err := rows.Scan(&c.ID, &c.Path, &c.BaseText, &c.LocalText, &c.RemoteText, &c.Resolved, &c.ResolvedText); err != nil {
			return nil, errs.New(errs.IoError, "metadata", "unresolved_conflicts", err)
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

// ResolveConflict marks conflict id resolved with resolvedText.
func (s *Store) ResolveConflict(ctx context.Context, id int64, resolvedText string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE conflicts SET resolved = TRUE, resolved_text = ? WHERE id = ?`, resolvedText, id)
	if err != nil {
		return errs.New(errs.IoError, "metadata", fmt.Sprintf("conflict:%d", id), err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errs.New(errs.NotFound, "metadata", fmt.Sprintf("conflict:%d", id), fmt.Errorf("conflict not found"))
	}
	return nil
}

// Statistics reports row counts for the commits, branches, snapshots,
// file_records and remotes tables.
type Statistics struct {
	Commits   int64
	Branches  int64
	Snapshots int64
	Files     int64
	Remotes   int64
}

// Statistics counts rows in the five tables Statistics names; commit_parents,
// line_changes, ai_activity and conflicts are not counted.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	queries := []struct {
		query string
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM commits`, &stats.Commits},
		{`SELECT COUNT(*) FROM branches`, &stats.Branches},
		{`SELECT COUNT(*) FROM snapshots`, &stats.Snapshots},
		{`SELECT COUNT(*) FROM file_records`, &stats.Files},
		{`SELECT COUNT(*) FROM remotes`, &stats.Remotes},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Statistics{}, errs.New(errs.IoError, "metadata", "statistics", err)
		}
	}
	return stats, nil
}
