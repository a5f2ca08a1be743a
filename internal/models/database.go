package models

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB is the database used by the backend.
var DB *gorm.DB

// FSContext is a context key type for the F-System backend.
type FSContext string

// DBContextURL is the key the request base URL is passed under, used
// to generate links in responses.
const DBContextURL FSContext = "fsystem-backend-url"

// Connect opens the database and configures the connection pool.
//
// The backend defaults to a SQLite database at the path passed in dsn.
// When DB_HOST is set, postgres is used instead and dsn is ignored.
func Connect(dsn string) error {
	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &logger{
			Logger: log.Logger,
		},
	}

	var db *gorm.DB
	var err error

	if host, ok := os.LookupEnv("DB_HOST"); ok {
		log.Debug().Msg("DB_HOST is set, using postgresql")
		pgDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s", host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
		db, err = gorm.Open(postgres.Open(pgDSN), config)
	} else {
		db, err = gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)", dsn)), config)
	}

	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	// This is done to prevent SQLITE_BUSY errors.
	// If you have ideas how to improve this, you are very welcome to open an issue or a PR. Thank you!
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	// Query callbacks
	err = db.Callback().Query().After("*").Register("fsystem:after_query", queryCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Query().After("*").Register("fsystem:after_query_general", generalCallback)
	if err != nil {
		return err
	}

	// Create callbacks
	err = db.Callback().Create().After("*").Register("fsystem:after_create", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("fsystem:after_create_general", generalCallback)
	if err != nil {
		return err
	}

	// Update callbacks
	err = db.Callback().Update().After("*").Register("fsystem:after_update", createUpdateCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("fsystem:after_update_general", generalCallback)
	if err != nil {
		return err
	}

	// Delete callbacks
	err = db.Callback().Delete().After("*").Register("fsystem:after_delete_general", generalCallback)
	if err != nil {
		return err
	}

	// Set the exported variable
	DB = db

	return nil
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		// Use the table name as information about the type of resource
		// and replace "_" with "[space]"
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")

		// Replace pluralized "ies" with "y"
		match := regexp.MustCompile("ies$")
		name = match.ReplaceAllString(name, "y")

		// Remove plural "s"
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, name)
	}
}

// createUpdateCallback inspects errors returned by the database for
// create and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// Donor and state names are reference data and unique
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: donors.name") {
		db.Error = ErrDonorNameNotUnique
	}

	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: states.name") {
		db.Error = ErrStateNameNotUnique
	}

	// Two concurrent requests derived the same serial code or the same
	// scope sequence number. The loser retries with a fresh read.
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: grant_serials") {
		db.Error = ErrSerialConflict
	}

	// Workplan numbers are unique per serial
	if strings.Contains(db.Error.Error(), "UNIQUE constraint failed: workplans.grant_serial_id, workplans.workplan_number") {
		db.Error = ErrWorkplanNumberConflict
	}

	if strings.Contains(db.Error.Error(), "CHECK constraint failed: allocation_root") {
		db.Error = ErrAllocationRootInvalid
	}

	// A field references a resource that does not exist
	if strings.Contains(db.Error.Error(), "FOREIGN KEY constraint failed") {
		db.Error = ErrReferenceInvalid
	}
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and we return a general message to users.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module, see
	// https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=1298;drc=0d018b49e33b1383dc0ae5cc968e800dffeeaf7d
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		// A general error where we cannot provide more useful information to the end user
		// We log the error and provide a general error message so that server admins can debug
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral

		return
	}
}

// migrate migrates all models to the schema defined in the code.
func migrate(db *gorm.DB) (err error) {
	err = db.AutoMigrate(
		Donor{},
		State{},
		GrantCall{},
		FundingCycle{},
		StateAllocation{},
		GrantSerial{},
		WorkplanSequenceCounter{},
		Mou{},
		Workplan{},
		LedgerEntry{},
		DonorRule{},
		ForecastRecord{},
	)
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}
