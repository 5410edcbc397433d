package auth

import "github.com/resiliencetracker/internal/db"

// Principal 是已认证的调用者
type Principal struct {
	UserID uint
	Role   db.Role
}

// IsCounsellor 判断调用者是否为咨询师
func (p Principal) IsCounsellor() bool {
	return p.Role == db.RoleCounsellor
}

// CanAccessClient 咨询师可访问任意来访者，来访者只能访问自己
func CanAccessClient(p Principal, clientID uint) bool {
	if p.IsCounsellor() {
		return true
	}
	return p.UserID != 0 && p.UserID == clientID
}
