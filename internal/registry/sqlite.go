package registry

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/xerrors"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLite is the single-file embedded relational store backing the
// registry, opened with application_id/user_version pragmas and WAL
// journaling as described by §4.5.
type SQLite struct {
	db     *sql.DB
	update UpdateID
}

// Open opens (creating if necessary) the registry file at path,
// applying pragmas and migrating forward to stableVersion. A mismatched
// application_id pragma on an existing, non-empty file aborts: this is
// not a registry this program created.
func Open(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, xerrors.Errorf("opening registry %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer, §5

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, xerrors.Errorf("%s: %w", p, err)
		}
	}

	if err := checkApplicationID(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, xerrors.Errorf("migrating registry: %w", err)
	}

	return &SQLite{db: db}, nil
}

func checkApplicationID(ctx context.Context, db *sql.DB) error {
	var id int64
	if err := db.QueryRowContext(ctx, "PRAGMA application_id").Scan(&id); err != nil {
		return xerrors.Errorf("reading application_id: %w", err)
	}
	if id == 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA application_id = %d", applicationID)); err != nil {
			return xerrors.Errorf("setting application_id: %w", err)
		}
		return nil
	}
	if id != applicationID {
		return xerrors.Errorf("registry application_id mismatch: got %d, want %d (not a registry created by this program)", id, applicationID)
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return xerrors.Errorf("reading user_version: %w", err)
	}
	if version > stableVersion {
		return xerrors.Errorf("registry schema version %d is newer than this program understands (%d); refusing to downgrade", version, stableVersion)
	}
	for version < stableVersion {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, migrations[version]); err != nil {
			tx.Rollback()
			return xerrors.Errorf("applying migration %d: %w", version, err)
		}
		version++
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUpdate allocates a new update generation.
func (s *SQLite) CreateUpdate(ctx context.Context) (UpdateID, error) {
	res, err := s.db.ExecContext(ctx, "INSERT INTO updates DEFAULT VALUES")
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return UpdateID(id), nil
}

// DeleteOtherUpdates removes every updates row except keep; cascading
// delete (ON DELETE CASCADE) purges their files rows.
func (s *SQLite) DeleteOtherUpdates(ctx context.Context, keep UpdateID) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM updates WHERE id != ?", int64(keep))
	return err
}

// RegisterFile appends a row to files, preserving insertion order via
// the autoincrement primary key.
func (s *SQLite) RegisterFile(ctx context.Context, update UpdateID, purpose Purpose, fp FilePath) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO files (update_id, purpose, file_type, path) VALUES (?, ?, ?, ?)",
		int64(update), int(purpose), int(fp.Type), []byte(fp.Path))
	return err
}

// Files returns every row of purpose in insertion order.
func (s *SQLite) Files(ctx context.Context, purpose Purpose) ([]FilePath, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT file_type, path FROM files WHERE purpose = ? ORDER BY id ASC", int(purpose))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFilePaths(rows)
}

// FilesFromOtherUpdates returns rows of purpose that do not belong to
// keep, in insertion order.
func (s *SQLite) FilesFromOtherUpdates(ctx context.Context, keep UpdateID, purpose Purpose) ([]FilePath, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_type, path FROM files
		 WHERE purpose = ? AND (update_id IS NULL OR update_id != ?)
		 ORDER BY id ASC`, int(purpose), int64(keep))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFilePaths(rows)
}

func scanFilePaths(rows *sql.Rows) ([]FilePath, error) {
	var out []FilePath
	for rows.Next() {
		var ft int
		var path []byte
		if err := rows.Scan(&ft, &path); err != nil {
			return nil, err
		}
		out = append(out, FilePath{Type: FileType(ft), Path: string(path)})
	}
	return out, rows.Err()
}

// ClearFiles deletes every row of purpose.
func (s *SQLite) ClearFiles(ctx context.Context, purpose Purpose) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM files WHERE purpose = ?", int(purpose))
	return err
}

// currentUpdate lazily allocates (and caches for the lifetime of this
// *SQLite) the update generation that RegisterUserFile/RegisterStateFile
// write into: "allocated implicitly when a registry first receives
// writes in a session" (§3, Update generation lifecycle).
func (s *SQLite) currentUpdate(ctx context.Context) (UpdateID, error) {
	if s.update != 0 {
		return s.update, nil
	}
	id, err := s.CreateUpdate(ctx)
	if err != nil {
		return 0, err
	}
	s.update = id
	return id, nil
}

// RegisterUserFile implements Registry by writing into the current
// generation under purpose User.
func (s *SQLite) RegisterUserFile(ctx context.Context, path FilePath) error {
	id, err := s.currentUpdate(ctx)
	if err != nil {
		return err
	}
	return s.RegisterFile(ctx, id, User, path)
}

// UserFiles implements Registry.
func (s *SQLite) UserFiles(ctx context.Context) ([]FilePath, error) {
	return s.Files(ctx, User)
}

// ClearUserFiles implements Registry.
func (s *SQLite) ClearUserFiles(ctx context.Context) error {
	return s.ClearFiles(ctx, User)
}

// RegisterStateFile implements Registry by writing into the current
// generation under purpose State.
func (s *SQLite) RegisterStateFile(ctx context.Context, path FilePath) error {
	id, err := s.currentUpdate(ctx)
	if err != nil {
		return err
	}
	return s.RegisterFile(ctx, id, State, path)
}

// StateFiles implements Registry.
func (s *SQLite) StateFiles(ctx context.Context) ([]FilePath, error) {
	return s.Files(ctx, State)
}

// ClearStateFiles implements Registry.
func (s *SQLite) ClearStateFiles(ctx context.Context) error {
	return s.ClearFiles(ctx, State)
}

// ConfigGet implements Registry.
func (s *SQLite) ConfigGet(ctx context.Context, key, def string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// ConfigSet implements Registry.
func (s *SQLite) ConfigSet(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

// Generation returns the update generation this connection has been
// writing into so far in this session, and whether one has been
// allocated yet.
func (s *SQLite) Generation() (UpdateID, bool) {
	return s.update, s.update != 0
}

// FinishGeneration deletes every other generation, making the current
// one (if any) the sole survivor, per invariant 3: "At most one
// non-empty generation exists at steady state after a successful
// install." If no writes happened this session, it is a no-op.
func (s *SQLite) FinishGeneration(ctx context.Context) error {
	if s.update == 0 {
		return nil
	}
	return s.DeleteOtherUpdates(ctx, s.update)
}
