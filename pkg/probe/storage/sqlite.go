package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/vantage/pkg/probe"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/results.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the probe.Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "probe.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, probe.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		_, err := s.db.Exec("PRAGMA journal_mode=WAL;")
		if err != nil {
			return probe.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled")
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs))
	if err != nil {
		return probe.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	_, err = s.db.Exec(Schema)
	if err != nil {
		return probe.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	_, err = s.db.Exec(InsertSchemaVersion, SchemaVersion)
	if err != nil {
		return probe.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err = s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return probe.NewStorageError("sqlite", "get_schema_version", err)
	}

	if version != SchemaVersion {
		return probe.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)

	return nil
}

// Store persists a probe result to the database.
func (s *SQLiteStorage) Store(ctx context.Context, result *probe.Result) error {
	addrs, _ := json.Marshal(result.Addrs)

	query := `
		INSERT INTO results (
			id, target, url, method,
			start_time, end_time,
			dns_lookup, tcp_connection, tls_handshake, server_processing, content_transfer, total,
			status_code, proto, bytes_read, redirects,
			conn_reused, dns_coalesced, remote_addr, addrs,
			error, error_class
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	// Convert empty strings to NULL for optional fields
	var errorVal, errorClassVal interface{}
	if result.Error != "" {
		errorVal = result.Error
	}
	if result.ErrorClass != "" {
		errorClassVal = result.ErrorClass
	}

	_, err := s.db.ExecContext(ctx, query,
		result.ID, result.Target, result.URL, result.Method,
		result.StartTime, result.EndTime,
		int64(result.DNSLookup), int64(result.TCPConnection), int64(result.TLSHandshake),
		int64(result.ServerProcessing), int64(result.ContentTransfer), int64(result.Total),
		result.StatusCode, result.Proto, result.BytesRead, result.Redirects,
		result.ConnReused, result.DNSCoalesced, result.RemoteAddr, string(addrs),
		errorVal, errorClassVal,
	)

	if err != nil {
		return probe.NewStorageError("sqlite", "store", err)
	}

	return nil
}

// Query retrieves probe results matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *probe.Query) ([]*probe.Result, error) {
	sqlQuery, args := s.buildSelect(query)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, probe.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	results := []*probe.Result{}
	for rows.Next() {
		result, err := s.scanRow(rows)
		if err != nil {
			return nil, probe.NewStorageError("sqlite", "scan", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, probe.NewStorageError("sqlite", "query", err)
	}

	return results, nil
}

// QueryStream returns a channel of probe results for memory-efficient streaming.
// Use this for large result sets to avoid loading everything in memory.
// The channels will be closed when the query completes or errors.
func (s *SQLiteStorage) QueryStream(ctx context.Context, query *probe.Query) (<-chan *probe.Result, <-chan error, error) {
	resultsCh := make(chan *probe.Result, 100)
	errCh := make(chan error, 1)

	sqlQuery, args := s.buildSelect(query)

	go func() {
		defer close(resultsCh)
		defer close(errCh)

		rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
		if err != nil {
			errCh <- probe.NewStorageError("sqlite", "query_stream", err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			result, err := s.scanRow(rows)
			if err != nil {
				errCh <- probe.NewStorageError("sqlite", "scan", err)
				return
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case resultsCh <- result:
			}
		}

		if err := rows.Err(); err != nil {
			errCh <- probe.NewStorageError("sqlite", "query_stream", err)
		}
	}()

	return resultsCh, errCh, nil
}

// Count returns the number of probe results matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *probe.Query) (int64, error) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM results"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count)
	if err != nil {
		return 0, probe.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// Delete removes probe results matching the query filters.
// Returns the number of results deleted.
func (s *SQLiteStorage) Delete(ctx context.Context, query *probe.Query) (int64, error) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "DELETE FROM results"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, probe.NewStorageError("sqlite", "delete", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, probe.NewStorageError("sqlite", "delete", err)
	}

	return count, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return probe.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite storage closed")
	return nil
}

// buildSelect builds the full SELECT statement with sorting and pagination.
func (s *SQLiteStorage) buildSelect(query *probe.Query) (string, []interface{}) {
	whereClause, args := s.buildWhereClause(query)

	sqlQuery := "SELECT * FROM results"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	sortBy := "start_time"
	sortOrder := "DESC"
	if query.SortBy != "" {
		sortBy = query.SortBy
	}
	if query.SortOrder != "" {
		sortOrder = query.SortOrder
	}
	sqlQuery += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	return sqlQuery, args
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the WHERE clause (without "WHERE" keyword) and the query arguments.
func (s *SQLiteStorage) buildWhereClause(query *probe.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	// Time range filter
	if query.StartTime != nil {
		conditions = append(conditions, "start_time >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conditions = append(conditions, "start_time <= ?")
		args = append(args, *query.EndTime)
	}

	// Target filter
	if query.Target != "" {
		conditions = append(conditions, "target = ?")
		args = append(args, query.Target)
	}

	// Status filter
	if query.Status != "" {
		switch query.Status {
		case "success":
			conditions = append(conditions, "error IS NULL")
		case "error":
			conditions = append(conditions, "error IS NOT NULL")
		}
	}

	// Error class filter
	if query.ErrorClass != "" {
		conditions = append(conditions, "error_class = ?")
		args = append(args, query.ErrorClass)
	}

	// Exact status code filter
	if query.StatusCode != 0 {
		conditions = append(conditions, "status_code = ?")
		args = append(args, query.StatusCode)
	}

	// Duration thresholds
	if query.MinTotal != nil {
		conditions = append(conditions, "total >= ?")
		args = append(args, int64(*query.MinTotal))
	}
	if query.MaxTotal != nil {
		conditions = append(conditions, "total <= ?")
		args = append(args, int64(*query.MaxTotal))
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}

	return whereClause, args
}

// scanRow scans a database row into a probe.Result.
func (s *SQLiteStorage) scanRow(row *sql.Rows) (*probe.Result, error) {
	var result probe.Result
	var dnsLookup, tcpConnection, tlsHandshake, serverProcessing, contentTransfer, total int64
	var addrs string
	var errorVal, errorClassVal sql.NullString

	err := row.Scan(
		&result.ID, &result.Target, &result.URL, &result.Method,
		&result.StartTime, &result.EndTime,
		&dnsLookup, &tcpConnection, &tlsHandshake, &serverProcessing, &contentTransfer, &total,
		&result.StatusCode, &result.Proto, &result.BytesRead, &result.Redirects,
		&result.ConnReused, &result.DNSCoalesced, &result.RemoteAddr, &addrs,
		&errorVal, &errorClassVal,
	)
	if err != nil {
		return nil, err
	}

	result.DNSLookup = time.Duration(dnsLookup)
	result.TCPConnection = time.Duration(tcpConnection)
	result.TLSHandshake = time.Duration(tlsHandshake)
	result.ServerProcessing = time.Duration(serverProcessing)
	result.ContentTransfer = time.Duration(contentTransfer)
	result.Total = time.Duration(total)

	if errorVal.Valid {
		result.Error = errorVal.String
	}
	if errorClassVal.Valid {
		result.ErrorClass = errorClassVal.String
	}

	if addrs != "" && addrs != "null" {
		json.Unmarshal([]byte(addrs), &result.Addrs)
	}

	return &result, nil
}
