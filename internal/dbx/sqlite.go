package dbx

import "strings"

// SQLiteDriver is the database/sql name of the modernc SQLite driver.
const SQLiteDriver = "sqlite"

// sqliteParams are forced onto every SQLite DSN: write transactions take the
// database lock at BEGIN, and a locked database is waited on instead of
// failing with SQLITE_BUSY.
var sqliteParams = []struct{ key, value string }{
	{"_txlock", "immediate"},
	{"_pragma", "busy_timeout(5000)"},
}

// SQLiteDSN adds the locking parameters missing from dsn.
// Values already present in dsn are kept.
func SQLiteDSN(dsn string) string {
	_, query, _ := strings.Cut(dsn, "?")

	var add []string
	for _, p := range sqliteParams {
		if !hasParam(query, p.key, p.value) {
			add = append(add, p.key+"="+p.value)
		}
	}
	if len(add) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
		if strings.HasSuffix(dsn, "?") || strings.HasSuffix(dsn, "&") {
			sep = ""
		}
	}
	return dsn + sep + strings.Join(add, "&")
}

// hasParam reports whether query already sets key. For _pragma only a pragma
// of the same name counts.
func hasParam(query, key, value string) bool {
	name, _, _ := strings.Cut(value, "(")
	for _, kv := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(kv, "=")
		if k != key {
			continue
		}
		if key != "_pragma" || strings.HasPrefix(strings.ToLower(v), name) {
			return true
		}
	}
	return false
}

// sqlitePool serializes access through one connection. SQLite allows a single
// writer; with one connection a read-check-write transaction never meets a
// lock held by another connection of the same pool, and an in-memory
// database is not lost to a recycled connection.
func sqlitePool(pool PoolConfig) PoolConfig {
	pool.MaxOpenConns = 1
	pool.MaxIdleConns = 1
	pool.ConnMaxLifetime = 0
	return pool
}
