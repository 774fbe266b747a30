package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Instance *gorm.DB

// Init connects to the database. The Supabase Postgres connection string
// (Settings -> Database) is used with the "postgres" driver.
func Init(driver, dsn string) error {
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            driver != "postgres", // Supabase's transaction pooler rejects prepared statements
		Logger:                 logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", driver, err)
	}
	Instance = db
	return nil
}

func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), nil
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("mysql dsn: %w", err)
		}
		// Timestamps are scanned into time.Time
		cfg.ParseTime = true
		return gormmysql.New(gormmysql.Config{DSN: cfg.FormatDSN(), DSNConfig: cfg}), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// IsUniqueViolation reports whether err was caused by a unique index
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// UniqueViolationOn reports whether err was caused by the unique index on column
func UniqueViolationOn(err error, column string) bool {
	if !IsUniqueViolation(err) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasSuffix(pgErr.ConstraintName, "_"+column)
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strings.HasSuffix(myErr.Message, "_"+column+"'")
	}
	// SQLite: "UNIQUE constraint failed: users.uid"
	msg := err.Error()
	i := strings.Index(msg, "UNIQUE constraint failed:")
	if i < 0 {
		return false
	}
	fields := strings.FieldsFunc(msg[i+len("UNIQUE constraint failed:"):], func(r rune) bool {
		return r == ' ' || r == ','
	})
	for _, f := range fields {
		if strings.HasSuffix(f, "."+column) {
			return true
		}
	}
	return false
}
