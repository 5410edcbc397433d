package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/resiliencetracker/internal/apperr"
	"github.com/resiliencetracker/internal/auth"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/metrics"
	"github.com/resiliencetracker/internal/wellbeing"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUserNotFound 在用户不存在或已删除时返回
	ErrUserNotFound = apperr.NotFound("user not found")
	// ErrClientNotFound 在来访者不存在或已删除时返回
	ErrClientNotFound = apperr.NotFound("client not found")
	// ErrNotAClient 在目标用户不是来访者时返回
	ErrNotAClient = apperr.Validation("user is not a client", map[string]string{"client_id": "not_a_client"})
	// ErrEmailTaken 在邮箱已被占用时返回（包括已删除账号）
	ErrEmailTaken = apperr.Conflict("a user with that email already exists")
	// ErrInvalidCredentials 登录失败时返回，不区分邮箱不存在与密码错误
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	// ErrInvalidRole 在角色不是 client/counsellor 时返回
	ErrInvalidRole = apperr.Validation("invalid role, choose 'client' or 'counsellor'", map[string]string{"role": "invalid"})
)

const (
	maxNameLength  = 50
	maxEmailLength = 120
)

// UserService 负责注册、登录以及咨询师对来访者的管理
type UserService struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// RegisterInput 定义注册时的输入
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// ClientInput 定义咨询师创建来访者时的输入，Password 为空时自动生成
type ClientInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// ClientUpdate 描述来访者资料的局部修改，nil 或空字符串表示保持不变
type ClientUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB, m *metrics.Metrics) *UserService {
	return &UserService{db: gdb, metrics: m}
}

// Register 创建用户，角色缺省为 client
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	role, ok := db.ParseRole(input.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	v := violations{}
	v.required("password", input.Password)
	user, err := s.newUser(input.FirstName, input.LastName, input.Email, input.Password, role, v)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate 校验邮箱与密码
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", db.NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser 根据 ID 获取有效用户
func (s *UserService) GetUser(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// ListClients 按 ID 升序分页返回有效来访者
func (s *UserService) ListClients(page Page) ([]db.User, error) {
	var clients []db.User
	query := s.db.Where("role = ?", db.RoleClient).Order("id ASC")
	if err := page.apply(query).Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// GetClient 获取有效来访者，目标不是来访者时返回 ErrNotAClient
func (s *UserService) GetClient(id uint) (*db.User, error) {
	return findClient(s.db, id)
}

// CreateClient 创建来访者；未提供密码时生成随机密码并随结果返回
func (s *UserService) CreateClient(input ClientInput) (*db.User, string, error) {
	password := input.Password
	generated := ""
	if strings.TrimSpace(password) == "" {
		var err error
		if generated, err = auth.GeneratePassword(); err != nil {
			return nil, "", err
		}
		password = generated
	}

	user, err := s.newUser(input.FirstName, input.LastName, input.Email, password, db.RoleClient, violations{})
	if err != nil {
		return nil, "", err
	}
	return user, generated, nil
}

// UpdateClient 修改来访者姓名与邮箱，邮箱需保持唯一
func (s *UserService) UpdateClient(id uint, input ClientUpdate) (*db.User, error) {
	var updated *db.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		client, err := findClient(tx, id)
		if err != nil {
			return err
		}

		v := violations{}
		if input.FirstName != nil && strings.TrimSpace(*input.FirstName) != "" {
			client.FirstName = strings.TrimSpace(*input.FirstName)
			v.maxLen("first_name", client.FirstName, maxNameLength)
		}
		if input.LastName != nil && strings.TrimSpace(*input.LastName) != "" {
			client.LastName = strings.TrimSpace(*input.LastName)
			v.maxLen("last_name", client.LastName, maxNameLength)
		}
		if input.Email != nil && strings.TrimSpace(*input.Email) != "" {
			client.Email = db.NormalizeEmail(*input.Email)
			v.email("email", client.Email)
			v.maxLen("email", client.Email, maxEmailLength)
		}
		if err := v.err("invalid client details"); err != nil {
			return err
		}

		if err := ensureEmailFree(tx, client.Email, client.ID); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(client).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("update client: %w", err)
		}
		updated = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteClient 软删除来访者及其全部数据
func (s *UserService) DeleteClient(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		client, err := findClient(tx, id)
		if err != nil {
			return err
		}
		return wellbeing.SoftDeleteClient(tx, client)
	})
	if err != nil {
		return err
	}
	s.metrics.Cascade("client")
	return nil
}

func (s *UserService) newUser(firstName, lastName, email, password string, role db.Role, v violations) (*db.User, error) {
	user := db.User{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     db.NormalizeEmail(email),
		Role:      role,
	}

	v.required("first_name", user.FirstName)
	v.required("last_name", user.LastName)
	v.required("email", user.Email)
	v.maxLen("first_name", user.FirstName, maxNameLength)
	v.maxLen("last_name", user.LastName, maxNameLength)
	v.maxLen("email", user.Email, maxEmailLength)
	v.email("email", user.Email)
	if err := v.err("invalid user details"); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hashed

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailFree(tx, user.Email, 0); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ensureEmailFree 检查邮箱是否被其他账号占用；已删除账号仍占用邮箱
func ensureEmailFree(tx *gorm.DB, email string, selfID uint) error {
	var count int64
	if err := tx.Unscoped().Model(&db.User{}).Where("email = ? AND id <> ?", email, selfID).Count(&count).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return nil
}

func findClient(tx *gorm.DB, id uint) (*db.User, error) {
	var user db.User
	if err := tx.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	if !user.IsClient() {
		return nil, ErrNotAClient
	}
	return &user, nil
}
