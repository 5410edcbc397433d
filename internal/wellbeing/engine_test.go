package wellbeing

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/dbtest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var week = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func storedScore(t *testing.T, gdb *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var assessment db.WeeklyAssessment
	require.NoError(t, gdb.Unscoped().First(&assessment, id).Error)
	return assessment.WellbeingScore
}

func liveCount(t *testing.T, gdb *gorm.DB, assessmentID, clientHabitID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, gdb.Model(&db.HabitScore{}).
		Where("assessment_id = ? AND client_habit_id = ?", assessmentID, clientHabitID).
		Count(&count).Error)
	return count
}

func addScore(t *testing.T, gdb *gorm.DB, f *dbtest.Fixture, value string) *db.HabitScore {
	t.Helper()
	score, err := CreateScore(gdb, &f.Assessment, &f.ClientHabit, dec(value), "")
	require.NoError(t, err)
	return score
}

func TestCreateScoreRecomputes(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	addScore(t, gdb, &f, "8.0")
	addScore(t, gdb, &f, "6.0")
	assertDecimal(t, "7.0", storedScore(t, gdb, f.Assessment.ID))
	assertDecimal(t, "7.0", f.Assessment.WellbeingScore)

	addScore(t, gdb, &f, "5.0")
	assertDecimal(t, "6.3", storedScore(t, gdb, f.Assessment.ID))
}

func TestCreateScoreRoundsValue(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	score := addScore(t, gdb, &f, "6.25")

	assertDecimal(t, "6.2", score.Score)
	assertDecimal(t, "6.2", storedScore(t, gdb, f.Assessment.ID))
}

func TestCreateScoreRejectsOutOfRange(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	for _, value := range []string{"-0.1", "10.5", "11"} {
		_, err := CreateScore(gdb, &f.Assessment, &f.ClientHabit, dec(value), "")
		assert.ErrorIs(t, err, ErrScoreOutOfRange, value)
		assert.ErrorIs(t, err, apperr.ErrValidation, value)
	}
	assert.Zero(t, liveCount(t, gdb, f.Assessment.ID, f.ClientHabit.ID))
}

func TestCreateScoreRejectsForeignClientHabit(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	other := db.User{FirstName: "Oli", LastName: "Other", Email: "oli@example.com", PasswordHash: "hashed", Role: db.RoleClient}
	require.NoError(t, gdb.Create(&other).Error)
	foreign := db.ClientHabit{ClientID: other.ID, HabitID: f.Habit.ID}
	require.NoError(t, gdb.Create(&foreign).Error)

	_, err := CreateScore(gdb, &f.Assessment, &foreign, dec("5.0"), "")

	assert.ErrorIs(t, err, ErrHabitNotAssigned)
	assert.Zero(t, liveCount(t, gdb, f.Assessment.ID, foreign.ID))
	assertDecimal(t, "0", storedScore(t, gdb, f.Assessment.ID))
}

func TestCreateScoreLimit(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	for i := 0; i < WeeklyScoreLimit; i++ {
		addScore(t, gdb, &f, "7.0")
	}

	_, err := CreateScore(gdb, &f.Assessment, &f.ClientHabit, dec("1.0"), "eighth")
	require.ErrorIs(t, err, ErrScoreLimitReached)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.EqualValues(t, WeeklyScoreLimit, liveCount(t, gdb, f.Assessment.ID, f.ClientHabit.ID))
	assertDecimal(t, "7.0", storedScore(t, gdb, f.Assessment.ID))
}

func TestDeletedScoreFreesLimit(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	var first *db.HabitScore
	for i := 0; i < WeeklyScoreLimit; i++ {
		s := addScore(t, gdb, &f, "7.0")
		if first == nil {
			first = s
		}
	}
	require.NoError(t, DeleteScore(gdb, first))

	addScore(t, gdb, &f, "7.0")
	assert.EqualValues(t, WeeklyScoreLimit, liveCount(t, gdb, f.Assessment.ID, f.ClientHabit.ID))
}

func TestDeleteLastScoreResetsToZero(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	score := addScore(t, gdb, &f, "9.0")
	assertDecimal(t, "9.0", storedScore(t, gdb, f.Assessment.ID))

	require.NoError(t, DeleteScore(gdb, score))

	assert.True(t, score.DeletedAt.Valid)
	assertDecimal(t, "0.0", storedScore(t, gdb, f.Assessment.ID))
}

func TestUpdateScore(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	score := addScore(t, gdb, &f, "4.0")
	addScore(t, gdb, &f, "6.0")

	value := dec("9.0")
	note := "better sleep"
	updated, err := UpdateScore(gdb, score, &value, &note)
	require.NoError(t, err)
	assertDecimal(t, "9.0", updated.Score)
	assert.Equal(t, note, updated.Note)
	assertDecimal(t, "7.5", storedScore(t, gdb, f.Assessment.ID))

	bad := dec("10.1")
	_, err = UpdateScore(gdb, score, &bad, nil)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	var reloaded db.HabitScore
	require.NoError(t, gdb.First(&reloaded, score.ID).Error)
	assertDecimal(t, "9.0", reloaded.Score)
	assert.Equal(t, note, reloaded.Note)
}

func TestLockAssessment(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	locked, err := LockAssessment(gdb, f.Assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Assessment.ID, locked.ID)

	_, err = LockAssessment(gdb, f.Assessment.ID+100)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRollbackLeavesNoPartialState(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)
	addScore(t, gdb, &f, "8.0")

	boom := errors.New("boom")
	err := gdb.Transaction(func(tx *gorm.DB) error {
		if _, err := CreateScore(tx, &f.Assessment, &f.ClientHabit, dec("2.0"), ""); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.EqualValues(t, 1, liveCount(t, gdb, f.Assessment.ID, f.ClientHabit.ID))
	assertDecimal(t, "8.0", storedScore(t, gdb, f.Assessment.ID))
}

// 随机的增删改序列之后，缓存值始终等于有效打分的均值
func TestMeanHoldsAcrossRandomOperations(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, week)

	clientHabits := []db.ClientHabit{f.ClientHabit}
	for i := 0; i < 2; i++ {
		habit := db.Habit{Name: fmt.Sprintf("Extra %d", i)}
		require.NoError(t, gdb.Create(&habit).Error)
		ch := db.ClientHabit{ClientID: f.Client.ID, HabitID: habit.ID}
		require.NoError(t, gdb.Create(&ch).Error)
		clientHabits = append(clientHabits, ch)
	}

	rng := rand.New(rand.NewSource(42))
	live := map[uint]*db.HabitScore{}
	perHabit := map[uint]int{}

	expected := func() decimal.Decimal {
		scores := make([]db.HabitScore, 0, len(live))
		for _, s := range live {
			scores = append(scores, *s)
		}
		return Mean(scores)
	}
	pick := func() *db.HabitScore {
		for _, s := range live {
			return s
		}
		return nil
	}

	for step := 0; step < 80; step++ {
		value := decimal.New(int64(rng.Intn(101)), -1)
		switch op := rng.Intn(3); {
		case op == 0 || len(live) == 0:
			ch := clientHabits[rng.Intn(len(clientHabits))]
			score, err := CreateScore(gdb, &f.Assessment, &ch, value, "")
			if perHabit[ch.ID] >= WeeklyScoreLimit {
				require.ErrorIs(t, err, ErrScoreLimitReached)
				break
			}
			require.NoError(t, err)
			live[score.ID] = score
			perHabit[ch.ID]++
		case op == 1:
			score := pick()
			_, err := UpdateScore(gdb, score, &value, nil)
			require.NoError(t, err)
		default:
			score := pick()
			require.NoError(t, DeleteScore(gdb, score))
			delete(live, score.ID)
			perHabit[score.ClientHabitID]--
		}

		require.Truef(t, expected().Equal(storedScore(t, gdb, f.Assessment.ID)),
			"step %d: expected %s, stored %s", step, expected(), storedScore(t, gdb, f.Assessment.ID))
	}
}
