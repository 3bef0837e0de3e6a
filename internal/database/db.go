package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Pool fallbacks applied when the config leaves a knob unset. The open
// ceiling has to stay below MySQL's max_connections with headroom for
// every server process in the cluster, since lock and ticket traffic
// fans out from all of them.
const (
	defaultMaxOpenConns = 25
	defaultConnLifetime = 30 * time.Minute
)

// Open connects to MySQL, applies the pool settings, and verifies the
// connection with a short ping. maxOpen and connLifetime come from the
// DB_MAX_OPEN_CONNS / DB_CONN_LIFETIME config knobs; non-positive
// values fall back to the defaults above.
func Open(user, pass, host, port, name string, maxOpen int, connLifetime time.Duration) (*sql.DB, error) {
	db, err := sql.Open("mysql", buildDSN(user, pass, host, port, name))
	if err != nil {
		return nil, err
	}

	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	if connLifetime <= 0 {
		connLifetime = defaultConnLifetime
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(connLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// buildDSN assembles the driver connection string. parseTime turns
// DATETIME columns into time.Time values and loc=UTC keeps the lock
// leases and event timestamps comparable with the UTC_TIMESTAMP()
// predicates in the repositories.
func buildDSN(user, pass, host, port, name string) string {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)
}
