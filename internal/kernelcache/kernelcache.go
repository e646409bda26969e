// Package kernelcache persists compiled-kernel binaries keyed by a fused
// node cluster's Signature, so a rebuild of the same fusion region across
// process restarts skips recompilation. It wires the same SQL driver set
// internal/database blank-imports, since a kernel cache is exactly the
// kind of small keyed-blob store those drivers are meant for.
package kernelcache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names the backend dialect; it also selects the CREATE TABLE
// statement and the query placeholder style, since the four wired drivers
// don't agree on either.
type Driver string

const (
	SQLite   Driver = "sqlite"
	MySQL    Driver = "mysql"
	Postgres Driver = "postgres"
	MSSQL    Driver = "sqlserver"
)

const createTableSQLite = `CREATE TABLE IF NOT EXISTS kernel_cache (
	signature TEXT PRIMARY KEY,
	binary BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

const createTablePostgres = `CREATE TABLE IF NOT EXISTS kernel_cache (
	signature TEXT PRIMARY KEY,
	binary BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

const createTableMySQL = `CREATE TABLE IF NOT EXISTS kernel_cache (
	signature VARCHAR(767) PRIMARY KEY,
	binary LONGBLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

const createTableMSSQL = `IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='kernel_cache' AND xtype='U')
CREATE TABLE kernel_cache (
	signature NVARCHAR(450) PRIMARY KEY,
	binary VARBINARY(MAX) NOT NULL,
	created_at DATETIME2 NOT NULL
)`

// Cache is a signature -> compiled-binary lookup backed by database/sql.
type Cache struct {
	db     *sql.DB
	driver Driver
}

// Open connects to dsn with the given driver and ensures the backing
// table exists.
func Open(driver Driver, dsn string) (*Cache, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("kernelcache: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("kernelcache: ping %s: %w", driver, err)
	}
	c := &Cache{db: db, driver: driver}
	if err := c.ensureTable(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) ensureTable() error {
	var stmt string
	switch c.driver {
	case SQLite:
		stmt = createTableSQLite
	case Postgres:
		stmt = createTablePostgres
	case MySQL:
		stmt = createTableMySQL
	case MSSQL:
		stmt = createTableMSSQL
	default:
		return fmt.Errorf("kernelcache: unsupported driver %q", c.driver)
	}
	_, err := c.db.Exec(stmt)
	return err
}

func (c *Cache) placeholder(n int) string {
	if c.driver == Postgres {
		return fmt.Sprintf("$%d", n)
	}
	if c.driver == MSSQL {
		return fmt.Sprintf("@p%d", n)
	}
	return "?"
}

// Get looks up the compiled binary for signature. ok is false on a miss.
func (c *Cache) Get(signature string) (binary []byte, ok bool, err error) {
	q := fmt.Sprintf("SELECT binary FROM kernel_cache WHERE signature = %s", c.placeholder(1))
	row := c.db.QueryRow(q, signature)
	if err := row.Scan(&binary); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("kernelcache: get: %w", err)
	}
	return binary, true, nil
}

// Put stores (or replaces) the compiled binary for signature.
func (c *Cache) Put(signature string, binary []byte) error {
	if _, ok, err := c.Get(signature); err != nil {
		return err
	} else if ok {
		q := fmt.Sprintf("UPDATE kernel_cache SET binary = %s, created_at = %s WHERE signature = %s",
			c.placeholder(1), c.placeholder(2), c.placeholder(3))
		_, err := c.db.Exec(q, binary, time.Now(), signature)
		return err
	}
	q := fmt.Sprintf("INSERT INTO kernel_cache (signature, binary, created_at) VALUES (%s, %s, %s)",
		c.placeholder(1), c.placeholder(2), c.placeholder(3))
	_, err := c.db.Exec(q, signature, binary, time.Now())
	return err
}

func (c *Cache) Close() error { return c.db.Close() }
