package repository

import (
	"context"

	"prize-wheel/internal/domain"
)

// AdminRepository 定义了管理员账号的存储和检索操作。
type AdminRepository interface {
	// FindByUsername 根据用户名查找管理员，不存在时返回 ErrAdminNotFound。
	FindByUsername(ctx context.Context, username string) (*domain.Admin, error)

	// Save 创建或更新管理员。
	Save(ctx context.Context, admin *domain.Admin) error
}
