package store

// schemaSQL is the base DDL. Later changes go through migrations.
const schemaSQL = `
-- Uploaded transcripts with hash-based change detection
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE,
    filename TEXT NOT NULL,
    format TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    parse_method TEXT NOT NULL,
    status TEXT DEFAULT 'pending',
    page_count INTEGER DEFAULT 0,
    metadata JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Serialized reconstruction results, one per document
CREATE TABLE IF NOT EXISTS transcripts (
    document_id INTEGER PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
    result JSON NOT NULL,
    analysis JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Term headers in reading order
CREATE TABLE IF NOT EXISTS terms (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    term TEXT NOT NULL,
    year TEXT NOT NULL,
    page INTEGER,
    y REAL,
    gpa REAL
);

-- Courses by kind: semester, exempted or transfer
CREATE TABLE IF NOT EXISTS courses (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    term_key TEXT,
    code TEXT NOT NULL,
    section TEXT,
    title TEXT,
    credits REAL,
    grade TEXT,
    gpa REAL,
    other TEXT,
    year_attended TEXT,
    kind TEXT NOT NULL CHECK (kind IN ('semester', 'exempted', 'transfer'))
);

CREATE INDEX IF NOT EXISTS idx_terms_document ON terms(document_id);
CREATE INDEX IF NOT EXISTS idx_courses_document ON courses(document_id, kind);
`
