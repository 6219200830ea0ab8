package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"prize-wheel/internal/domain"
	"prize-wheel/internal/repository"
)

// GormAdminRepository 是 AdminRepository 接口的 GORM 实现
type GormAdminRepository struct {
	db *gorm.DB
}

// NewGormAdminRepository 创建 GormAdminRepository 实例
func NewGormAdminRepository(db *gorm.DB) *GormAdminRepository {
	if db == nil {
		panic("database connection cannot be nil for GormAdminRepository")
	}
	return &GormAdminRepository{db: db}
}

// FindByUsername 实现根据用户名查找管理员
func (r *GormAdminRepository) FindByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	var admin domain.Admin
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAdminNotFound
		}
		return nil, fmt.Errorf("gorm: find admin by username '%s': %w", username, err)
	}
	return &admin, nil
}

// Save 实现保存管理员（创建或更新）
func (r *GormAdminRepository) Save(ctx context.Context, admin *domain.Admin) error {
	err := r.db.WithContext(ctx).Save(admin).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save admin (id: %d, username: %s): %w", admin.ID, admin.Username, err)
	}
	return nil
}

// isDuplicateEntryError 优先检查 MySQL 错误码 1062，其余驱动退回到错误字符串匹配
func isDuplicateEntryError(err error) bool {
	if err == nil {
		return false
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
