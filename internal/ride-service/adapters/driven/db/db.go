package db

import (
	"context"
	"fmt"

	"ridelink/internal/config"
	"ridelink/internal/mylogger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	ctx   context.Context
	cfg   *config.DBconfig
	mylog mylogger.Logger
	pool  *pgxpool.Pool
}

// New initializes a connection pool. Handlers run concurrently, so a single
// connection is not enough here.
func New(ctx context.Context, dbCfg *config.DBconfig, mylog mylogger.Logger) (*DB, error) {
	d := &DB{
		cfg:   dbCfg,
		ctx:   ctx,
		mylog: mylog,
	}

	pool, err := pgxpool.New(ctx, fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Database,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %v", err)
	}

	d.pool = pool
	return d, nil
}

// Close releases the pool
func (d *DB) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}

// IsAlive pings the DB to verify it's responsive
func (d *DB) IsAlive() error {
	if d.pool == nil {
		return fmt.Errorf("DB is not initialized")
	}
	return d.pool.Ping(d.ctx)
}
