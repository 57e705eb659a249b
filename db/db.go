package db

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// Init opens the sqlite database and verifies the connection.
func Init(path string) error {
	d, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("opening database %s: %w", path, err)
	}
	if err := d.Ping(); err != nil {
		return fmt.Errorf("pinging database %s: %w", path, err)
	}
	database = d
	log.Printf("[db] opened %s", path)
	return nil
}

// Get returns the shared handle. Init must have been called.
func Get() *sql.DB {
	return database
}

// SetForTesting swaps in a mock handle.
func SetForTesting(d *sql.DB) {
	database = d
}

func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

func Query(query string, args ...interface{}) (*sql.Rows, error) {
	return database.Query(query, args...)
}

func QueryRow(query string, args ...interface{}) *sql.Row {
	return database.QueryRow(query, args...)
}

func Exec(query string, args ...interface{}) (sql.Result, error) {
	return database.Exec(query, args...)
}
