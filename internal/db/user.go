package db

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role 区分咨询师与来访者
type Role string

const (
	RoleClient     Role = "client"
	RoleCounsellor Role = "counsellor"
)

// ParseRole 将外部输入转换为 Role，空字符串视为 client
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleClient:
		return RoleClient, true
	case RoleCounsellor:
		return RoleCounsellor, true
	default:
		return "", false
	}
}

// User 定义了用户模型
// 删除用户时通过 wellbeing.SoftDeleteClient 级联写入同一个 DeletedAt
type User struct {
	gorm.Model
	FirstName    string             `gorm:"size:50;not null"`
	LastName     string             `gorm:"size:50;not null"`
	Email        string             `gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string             `gorm:"size:128;not null"`
	Role         Role               `gorm:"size:20;not null;index"`
	ClientHabits []ClientHabit      `gorm:"foreignKey:ClientID"`
	Assessments  []WeeklyAssessment `gorm:"foreignKey:ClientID"`
}

// IsClient 判断用户是否为来访者
func (u User) IsClient() bool {
	return u.Role == RoleClient
}

// NormalizeEmail 统一邮箱格式，保证唯一索引按小写比较
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureCounsellor 存在性检查：若提供的邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的咨询师。
func EnsureCounsellor(gdb *gorm.DB, email, password string) error {
	trimmedEmail := NormalizeEmail(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if gdb == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := gdb.Unscoped().Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("find counsellor: %w", err)
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return gdb.Create(&User{
			FirstName:    "Admin",
			LastName:     "Counsellor",
			Email:        trimmedEmail,
			PasswordHash: string(hashed),
			Role:         RoleCounsellor,
		}).Error
	}

	return nil
}
