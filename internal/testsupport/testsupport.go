// Package testsupport provides shared helpers for package tests: in-memory
// databases with the full schema migrated, seed-data constructors, and a
// quiet logger.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"beaconly/internal/accounts"
	"beaconly/internal/config"
	"beaconly/internal/domains"
	"beaconly/internal/events"
	"beaconly/internal/goals"
	"beaconly/internal/subscriptions"
)

// testDBCache caches test databases by root test name so that setup helpers
// called from subtests share the same database.
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager with beaconly's interface
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all beaconly models for migration
func allModels() []any {
	return []any{
		&events.Event{},
		&domains.Domain{},
		&goals.Goal{},
		&subscriptions.Subscription{},
		&accounts.Account{},
	}
}

// SetupTestDB creates a test database with all beaconly models migrated.
// Uses a named in-memory database with cache=shared to allow multiple
// connections to share the same database within a test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	// Use the root test name for caching so setup helpers capturing the
	// outer t still hit the same database from subtests.
	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := config.GetConfig()

	if cfg.Environment != config.Test {
		t.Fatalf("Tests must run in the test environment! Current: %s. Set BEACONLY_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// GetLogger returns a test logger that only surfaces errors
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestDomain creates a domain owned by userID, reusing an existing row
// with the same name.
func CreateTestDomain(t *testing.T, db *gorm.DB, name string, userID uint) *domains.Domain {
	t.Helper()

	if existing, err := domains.GetByName(db, name); err == nil {
		return existing
	}

	domain := &domains.Domain{Name: name, UserID: userID}
	require.NoError(t, domains.Create(db, domain))
	return domain
}

// CreatePublicTestDomain creates a publicly readable domain.
func CreatePublicTestDomain(t *testing.T, db *gorm.DB, name string, userID uint) *domains.Domain {
	t.Helper()

	domain := CreateTestDomain(t, db, name, userID)
	require.NoError(t, db.Model(domain).Update("public", true).Error)
	domain.Public = true
	return domain
}

// CreateTestAccount creates an account with the given timezone.
func CreateTestAccount(t *testing.T, db *gorm.DB, email, timezone string) *accounts.Account {
	t.Helper()

	account := &accounts.Account{
		Email:     email,
		Timezone:  timezone,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

// NewPageView builds an unsaved page view event with sensible defaults.
// Tests override individual fields before inserting.
func NewPageView(domain string, visitorID int64, path string, timestamp time.Time) *events.Event {
	return &events.Event{
		Timestamp:       timestamp.UTC(),
		Type:            events.TypePageView,
		Domain:          domain,
		Path:            path,
		VisitorID:       visitorID,
		DeviceCategory:  events.DeviceDesktop,
		DeviceName:      "Mac",
		DeviceClass:     "desktop",
		OperatingSystem: "MacOS",
		AgentName:       "Chrome",
		ScreenWidth:     1920,
		CreatedAt:       time.Now().UTC(),
	}
}

// InsertEvent persists a prepared event row.
func InsertEvent(t *testing.T, db *gorm.DB, event *events.Event) {
	t.Helper()
	require.NoError(t, db.Create(event).Error)
}

// InsertPageView creates and persists a page view in one step.
func InsertPageView(t *testing.T, db *gorm.DB, domain string, visitorID int64, path string, timestamp time.Time) {
	t.Helper()
	InsertEvent(t, db, NewPageView(domain, visitorID, path, timestamp))
}

// CleanAllTables clears all non-system tables in the database
func CleanAllTables(db *gorm.DB) {
	var tableNames []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&tableNames)

	if len(tableNames) == 0 {
		return
	}

	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tableNames {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}
