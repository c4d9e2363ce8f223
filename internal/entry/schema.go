package entry

// Schema is the diary schema. Entries are addressed by rowid; entrytext is
// the FTS5 index over entry bodies and shares rowids with entries. The
// draft table is a single slot (one diary, one author) holding the latest
// unsubmitted draft and its content fingerprint.
const Schema = `
CREATE TABLE IF NOT EXISTS entries
(
    timestamp INTEGER NOT NULL,
    date      TEXT NOT NULL,
    body      TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS entrytext USING fts5(body);

CREATE TABLE IF NOT EXISTS draft
(
    id           INTEGER PRIMARY KEY CHECK (id = 1),
    content      TEXT NOT NULL,
    content_hash TEXT NOT NULL DEFAULT '',
    updated_at   INTEGER NOT NULL
);
`
