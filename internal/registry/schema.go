package registry

// applicationID is the fixed 32-bit magic stored in the SQLite
// application_id pragma. A registry file whose application_id does not
// match this value was not created by this program and opening it is a
// fatal error.
const applicationID = 0x6c6f6e74 // "lont", arbitrary but stable

// migrations is the append-only list of schema migration steps. Each
// entry moves the registry from user_version == index to
// user_version == index+1. The migration engine refuses to move
// backward past stableVersion except via an explicit rollback list used
// only by developers (not exposed here).
var migrations = []string{
	// 0 -> 1: initial schema.
	`
CREATE TABLE updates (
	id INTEGER PRIMARY KEY AUTOINCREMENT
) STRICT;

CREATE TABLE files (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	update_id INTEGER NULL REFERENCES updates(id) ON DELETE CASCADE,
	purpose   INTEGER NOT NULL,
	file_type INTEGER NOT NULL,
	path      BLOB NOT NULL
) STRICT;
`,
	// 1 -> 2: string-keyed configuration store, used by the "once"
	// with-wrapper and other one-shot bookkeeping.
	`
CREATE TABLE config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
) STRICT;
`,
}

// stableVersion is the schema version this build of the program
// understands and migrates up to. It equals len(migrations).
const stableVersion = len(migrations)
