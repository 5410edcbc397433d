// Package dbtest opens isolated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/resiliencetracker/internal/db"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// Open returns a migrated database that lives until the test finishes.
// A single connection is kept so the in-memory database survives and
// transactions serialise the same way they do in the server.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:dbtest-%d-%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return gdb
}

// Fixture is a small graph of rows most tests start from.
type Fixture struct {
	Counsellor  db.User
	Client      db.User
	Habit       db.Habit
	ClientHabit db.ClientHabit
	Assessment  db.WeeklyAssessment
}

// Seed creates a counsellor, a client with one assigned habit and one empty
// assessment for the week starting weekStart.
func Seed(t testing.TB, gdb *gorm.DB, weekStart time.Time) Fixture {
	t.Helper()

	f := Fixture{
		Counsellor: db.User{FirstName: "Cora", LastName: "Counsellor", Email: "cora@example.com", PasswordHash: "hashed", Role: db.RoleCounsellor},
		Client:     db.User{FirstName: "Cal", LastName: "Client", Email: "cal@example.com", PasswordHash: "hashed", Role: db.RoleClient},
		Habit:      db.Habit{Name: "Exercise", Description: "Move your body"},
	}
	if err := gdb.Create(&f.Counsellor).Error; err != nil {
		t.Fatalf("failed to seed counsellor: %v", err)
	}
	if err := gdb.Create(&f.Client).Error; err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	if err := gdb.Create(&f.Habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	f.ClientHabit = db.ClientHabit{ClientID: f.Client.ID, HabitID: f.Habit.ID}
	if err := gdb.Create(&f.ClientHabit).Error; err != nil {
		t.Fatalf("failed to seed client habit: %v", err)
	}

	f.Assessment = NewAssessment(t, gdb, f.Client.ID, weekStart)
	return f
}

// NewAssessment inserts an empty assessment for clientID.
func NewAssessment(t testing.TB, gdb *gorm.DB, clientID uint, weekStart time.Time) db.WeeklyAssessment {
	t.Helper()

	assessment := db.WeeklyAssessment{
		ClientID:       clientID,
		WeekStartDate:  db.NormalizeWeekStart(weekStart),
		WellbeingScore: decimal.Zero,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := gdb.Create(&assessment).Error; err != nil {
		t.Fatalf("failed to seed assessment: %v", err)
	}
	return assessment
}
