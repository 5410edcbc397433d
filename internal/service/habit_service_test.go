package service

import (
	"errors"
	"testing"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/dbtest"
)

func TestHabitServiceCreateAndList(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewHabitService(gdb)

	for _, name := range []string{"Sleep", "Drink Water", "Exercise"} {
		if _, err := svc.Create(HabitInput{Name: "  " + name + "  ", Description: "daily"}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	habits, err := svc.List(HabitFilter{})
	if err != nil {
		t.Fatalf("list habits: %v", err)
	}
	if len(habits) != 3 {
		t.Fatalf("expected 3 habits, got %d", len(habits))
	}
	if habits[0].Name != "Drink Water" || habits[2].Name != "Sleep" {
		t.Fatalf("expected name order, got %s..%s", habits[0].Name, habits[2].Name)
	}

	filtered, err := svc.List(HabitFilter{Search: "Wat"})
	if err != nil {
		t.Fatalf("search habits: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected 1 match, got %d", len(filtered))
	}
}

func TestHabitServiceValidation(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewHabitService(gdb)

	if _, err := svc.Create(HabitInput{Name: "   "}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}

	if _, err := svc.Create(HabitInput{Name: "Sleep"}); err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if _, err := svc.Create(HabitInput{Name: "Sleep"}); !errors.Is(err, ErrHabitNameTaken) {
		t.Fatalf("expected ErrHabitNameTaken, got %v", err)
	}
}

func TestHabitServiceUpdate(t *testing.T) {
	gdb := dbtest.Open(t)
	svc := NewHabitService(gdb)

	habit, err := svc.Create(HabitInput{Name: "Sleep", Description: "old"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	other, err := svc.Create(HabitInput{Name: "Read"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}

	blank := " "
	desc := "Aim for 8 hours"
	updated, err := svc.Update(habit.ID, HabitUpdate{Name: &blank, Description: &desc})
	if err != nil {
		t.Fatalf("update habit: %v", err)
	}
	if updated.Name != "Sleep" || updated.Description != desc {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if _, err := svc.Update(other.ID, HabitUpdate{Name: &updated.Name}); !errors.Is(err, ErrHabitNameTaken) {
		t.Fatalf("expected ErrHabitNameTaken, got %v", err)
	}
	if _, err := svc.Update(999, HabitUpdate{}); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
}

func TestHabitServiceDelete(t *testing.T) {
	gdb := dbtest.Open(t)
	f := dbtest.Seed(t, gdb, testWeek)
	svc := NewHabitService(gdb)

	if err := svc.Delete(f.Habit.ID); !errors.Is(err, ErrHabitInUse) {
		t.Fatalf("expected ErrHabitInUse, got %v", err)
	}

	// 已删除的分配同样阻止删除
	if err := gdb.Delete(&db.ClientHabit{}, f.ClientHabit.ID).Error; err != nil {
		t.Fatalf("tombstone client habit: %v", err)
	}
	if err := svc.Delete(f.Habit.ID); !errors.Is(err, ErrHabitInUse) {
		t.Fatalf("expected ErrHabitInUse with tombstoned assignment, got %v", err)
	}

	unused, err := svc.Create(HabitInput{Name: "Unused"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	if err := svc.Delete(unused.ID); err != nil {
		t.Fatalf("delete unused habit: %v", err)
	}

	var count int64
	if err := gdb.Unscoped().Model(&db.Habit{}).Where("id = ?", unused.ID).Count(&count).Error; err != nil {
		t.Fatalf("count habits: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected habit row to be removed, found %d", count)
	}
}
