// Package testutil provides a stub database/sql driver that emulates the
// postgres state table for persister tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
)

var stubSeq atomic.Int64

// StateConn emulates `state(bucket TEXT PRIMARY KEY, payload JSONB)`. It
// understands the DDL, the bucket upsert and the payload select by bucket.
type StateConn struct {
	mu       sync.Mutex
	Execs    []string
	Payloads map[string][]byte

	FailPing   bool
	FailBegin  bool
	FailUpsert bool
	FailCommit bool
	FailQuery  bool
}

// NewStubDB registers a sql.DB backed by a fresh StateConn.
func NewStubDB() (*sql.DB, *StateConn) {
	conn := &StateConn{Payloads: map[string][]byte{}}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Payload returns the stored payload for bucket.
func (c *StateConn) Payload(bucket string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Payloads[bucket]
	return p, ok
}

// SetPayload stores payload under bucket, bypassing SQL.
func (c *StateConn) SetPayload(bucket string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Payloads[bucket] = payload
}

type stubDriver struct {
	conn *StateConn
}

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn. Statements always go through the
// context-aware fast paths.
func (c *StateConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported")
}

// Close implements driver.Conn.
func (c *StateConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StateConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// Ping implements driver.Pinger.
func (c *StateConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// BeginTx implements driver.ConnBeginTx.
func (c *StateConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return stubTx{conn: c}, nil
}

// ExecContext implements driver.ExecerContext.
func (c *StateConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)

	switch verb := firstWord(query); verb {
	case "CREATE":
		return driver.RowsAffected(0), nil
	case "INSERT":
		if c.FailUpsert {
			return nil, fmt.Errorf("upsert fail")
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("upsert wants bucket and payload, got %d args", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("bucket must be text, got %T", args[0].Value)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("payload must be bytes, got %T", args[1].Value)
		}
		c.Payloads[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	default:
		return nil, fmt.Errorf("unsupported statement %s", verb)
	}
}

// QueryContext implements driver.QueryerContext for
// `SELECT payload FROM state WHERE bucket = $1`.
func (c *StateConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.FailQuery {
		return nil, fmt.Errorf("query fail")
	}
	if firstWord(query) != "SELECT" || len(args) != 1 {
		return nil, fmt.Errorf("unsupported query %q", query)
	}
	bucket, _ := args[0].Value.(string)

	c.mu.Lock()
	defer c.mu.Unlock()
	rows := &stubRows{}
	if payload, ok := c.Payloads[bucket]; ok {
		rows.payloads = [][]byte{payload}
	}
	return rows, nil
}

func firstWord(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

type stubTx struct {
	conn *StateConn
}

func (t stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t stubTx) Rollback() error { return nil }

type stubRows struct {
	payloads [][]byte
	idx      int
}

func (r *stubRows) Columns() []string { return []string{"payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.payloads) {
		return io.EOF
	}
	dest[0] = r.payloads[r.idx]
	r.idx++
	return nil
}
