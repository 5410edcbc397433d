package db

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultHabits 是初始习惯目录
var DefaultHabits = []Habit{
	{Name: "Drink Water", Description: "Stay hydrated by drinking enough water each day"},
	{Name: "Get Enough Sleep", Description: "Aim for 7-9 hours of quality sleep per night"},
	{Name: "Exercise", Description: "Engage in physical activity to move your body"},
	{Name: "Eat Healthily", Description: "Choose nutritious foods and maintain balanced meals"},
	{Name: "Connect with Nature", Description: "Spend time outdoors or in green spaces"},
	{Name: "Connect with Others", Description: "Maintain healthy relationships and social connections"},
	{Name: "Practice Spirituality", Description: "Engage in activities that nourish your spirit"},
	{Name: "Express Creativity", Description: "Do something creative like painting, writing, or music"},
}

const demoPassword = "password"

// Seed 写入默认习惯以及演示用的咨询师和来访者，重复执行不会产生重复数据
func Seed(gdb *gorm.DB) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		habits := make([]Habit, len(DefaultHabits))
		copy(habits, DefaultHabits)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&habits).Error; err != nil {
			return fmt.Errorf("seed habits: %w", err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		users := []User{
			{FirstName: "Admin", LastName: "Counsellor", Email: "counsellor@example.com", Role: RoleCounsellor, PasswordHash: string(hashed)},
			{FirstName: "Demo", LastName: "Client", Email: "client@example.com", Role: RoleClient, PasswordHash: string(hashed)},
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}

		return nil
	})
}
