package store

const schema = `
CREATE TABLE IF NOT EXISTS scaffolds (
    id TEXT PRIMARY KEY,
    artifact_type TEXT NOT NULL,
    fingerprint TEXT DEFAULT '',
    template_id TEXT DEFAULT '',
    output_path TEXT DEFAULT '',
    category TEXT DEFAULT '',
    step TEXT NOT NULL DEFAULT 'START',
    status TEXT NOT NULL DEFAULT 'running',
    error_message TEXT DEFAULT '',
    created_at DATETIME DEFAULT (datetime('now')),
    updated_at DATETIME DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_scaffolds_type ON scaffolds(artifact_type);
CREATE INDEX IF NOT EXISTS idx_scaffolds_created ON scaffolds(created_at);
`
