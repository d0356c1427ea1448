package db

import (
	"context"
	"fmt"
	"time"

	"config_client/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const maxRetries = 5

// Init opens the configured database and waits until it answers a ping.
func Init(DBCfg *config.DBConfig) (*sqlx.DB, error) {
	driverName := DBCfg.DriverName()
	dsn := DBCfg.DSN()

	var db *sqlx.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = sqlx.Open(driverName, dsn)
		if err != nil {
			logrus.WithError(err).Warnf("Failed to open database connection (attempt %d/%d)", i+1, maxRetries)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err != nil {
			logrus.WithError(err).Warnf("Failed to ping database (attempt %d/%d)", i+1, maxRetries)
			if cerr := db.Close(); cerr != nil {
				logrus.WithError(cerr).Warn("Failed to close database connection")
			}
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		// Connection successful
		break
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database after %d attempts: %w", DBCfg.Driver, maxRetries, err)
	}

	db.SetMaxOpenConns(DBCfg.MaxOpenConns)
	db.SetMaxIdleConns(DBCfg.MaxIdleConns)
	db.SetConnMaxLifetime(DBCfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(5 * time.Minute)

	logrus.WithField("driver", driverName).Info("Database connection established successfully")
	return db, nil
}
