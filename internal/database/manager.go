// Package database manages SQL connections for the db native module. Each
// VM owns one Manager, so scripts running on separate VMs never share
// connection handles.
package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite" // pure Go, no cgo
)

// Manager holds the open connections of one VM, keyed by handle.
type Manager struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	next  int
}

// Conn is one active database connection.
type Conn struct {
	ID       string
	Driver   string
	DB       *sql.DB
	Opened   time.Time
	LastUsed time.Time
}

func NewManager() *Manager {
	return &Manager{conns: make(map[string]*Conn)}
}

// Open connects to a database and returns the handle scripts pass to the
// other db functions.
func (m *Manager) Open(driver, dsn string) (string, error) {
	driverName, err := resolveDriver(driver)
	if err != nil {
		return "", err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return "", fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	id := fmt.Sprintf("conn%d", m.next)
	m.conns[id] = &Conn{
		ID:       id,
		Driver:   driver,
		DB:       db,
		Opened:   time.Now(),
		LastUsed: time.Now(),
	}
	return id, nil
}

func resolveDriver(driver string) (string, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return "sqlite", nil
	case "postgres", "postgresql":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "mssql", "sqlserver":
		return "sqlserver", nil
	}
	return "", fmt.Errorf("unsupported database type: %s", driver)
}

// Execute runs a statement that returns no rows and reports the affected
// row count.
func (m *Manager) Execute(id, query string, args ...interface{}) (int64, error) {
	conn, err := m.get(id)
	if err != nil {
		return 0, err
	}
	conn.LastUsed = time.Now()

	result, err := conn.DB.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("execution failed: %w", err)
	}
	return result.RowsAffected()
}

// Query runs a row-returning statement. Each row comes back as a column
// name to value map; byte slices are converted to strings.
func (m *Manager) Query(id, query string, args ...interface{}) ([]map[string]interface{}, error) {
	conn, err := m.get(id)
	if err != nil {
		return nil, err
	}
	conn.LastUsed = time.Now()

	rows, err := conn.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range columns {
		valuePtrs[i] = &values[i]
	}

	var results []map[string]interface{}
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// QueryOne runs a query expecting at least one row and returns the first.
func (m *Manager) QueryOne(id, query string, args ...interface{}) (map[string]interface{}, error) {
	results, err := m.Query(id, query, args...)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no rows returned")
	}
	return results[0], nil
}

// Transaction runs fn inside a transaction, rolling back if it errors.
func (m *Manager) Transaction(id string, fn func(*sql.Tx) error) error {
	conn, err := m.get(id)
	if err != nil {
		return err
	}
	conn.LastUsed = time.Now()

	tx, err := conn.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback failed: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close shuts down one connection.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("connection '%s' not found", id)
	}
	if err := conn.DB.Close(); err != nil {
		return err
	}
	delete(m.conns, id)
	return nil
}

// CloseAll shuts down every connection. The VM calls this on Close.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, conn := range m.conns {
		conn.DB.Close()
	}
	m.conns = make(map[string]*Conn)
}

func (m *Manager) get(id string) (*Conn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("connection '%s' not found", id)
	}
	return conn, nil
}
