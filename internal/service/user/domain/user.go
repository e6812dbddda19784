// internal/service/user/domain/user.go
package domain

import (
	"context"
	"errors"
)

// ErrUserNotFound 用户 ID 无法解析。
var ErrUserNotFound = errors.New("user not found")

// User 是订单归属方。账号管理在别的服务，这里只做存在性校验。
type User struct {
	ID    uint64
	Email string
	Name  string
}

// UserRepository 订单核心只需要按 ID 查用户。
type UserRepository interface {
	FindByID(ctx context.Context, id uint64) (*User, error)
}
