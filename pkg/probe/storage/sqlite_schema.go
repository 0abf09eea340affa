package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the results database schema.
const Schema = `
-- Probe results table
CREATE TABLE IF NOT EXISTS results (
    id TEXT PRIMARY KEY,
    target TEXT NOT NULL,
    url TEXT NOT NULL,
    method TEXT NOT NULL,

    -- Timestamps
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP,

    -- Phase durations, stored in nanoseconds
    dns_lookup INTEGER NOT NULL,
    tcp_connection INTEGER NOT NULL,
    tls_handshake INTEGER NOT NULL,
    server_processing INTEGER NOT NULL,
    content_transfer INTEGER NOT NULL,
    total INTEGER NOT NULL,

    -- HTTP outcome
    status_code INTEGER,
    proto TEXT,
    bytes_read INTEGER,
    redirects INTEGER,

    -- Connection details
    conn_reused BOOLEAN NOT NULL,
    dns_coalesced BOOLEAN NOT NULL,
    remote_addr TEXT,
    addrs TEXT,

    -- Failure info
    error TEXT,
    error_class TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_results_start_time ON results(start_time);
CREATE INDEX IF NOT EXISTS idx_results_target ON results(target);
CREATE INDEX IF NOT EXISTS idx_results_status_code ON results(status_code);
CREATE INDEX IF NOT EXISTS idx_results_error_class ON results(error_class);
CREATE INDEX IF NOT EXISTS idx_results_total ON results(total);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
