package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Permission string

const (
	PermissionView    Permission = "VIEW"
	PermissionEdit    Permission = "EDIT"
	PermissionDelete  Permission = "DELETE"
	PermissionApprove Permission = "APPROVE"
	PermissionManage  Permission = "MANAGE"
)

type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserPending  UserStatus = "PENDING"
	UserInactive UserStatus = "INACTIVE"
)

// User - оператор, от имени которого выполняются действия
type User struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	Department   string       `json:"department"`
	Status       UserStatus   `json:"status"`
	Permissions  []Permission `json:"permissions"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Can сообщает, может ли пользователь выполнить действие с данным правом
func (u *User) Can(p Permission) bool {
	return u.Status == UserActive && slices.Contains(u.Permissions, p)
}
