package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"prize-wheel/internal/repository"
)

// AuthService 负责后台管理员的登录认证。
type AuthService struct {
	adminRepo repository.AdminRepository
	jwtSecret []byte
	jwtExpiry time.Duration
}

// NewAuthService 创建 AuthService 实例。
// jwtExpiryHours <= 0 时默认 24 小时。
func NewAuthService(adminRepo repository.AdminRepository, jwtSecretKey string, jwtExpiryHours int) (*AuthService, error) {
	if adminRepo == nil {
		panic("AdminRepository cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24
	}
	return &AuthService{
		adminRepo: adminRepo,
		jwtSecret: []byte(jwtSecretKey),
		jwtExpiry: time.Duration(jwtExpiryHours) * time.Hour,
	}, nil
}

// Login 校验管理员用户名和密码，成功时返回签名的 JWT。
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	logCtx := logrus.WithField("username", username)

	// 1. 根据用户名查找管理员
	admin, err := s.adminRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			logCtx.Warn("Login attempt failed: admin not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding admin")
		}
		// 对客户端统一返回认证失败
		return "", ErrAuthenticationFailed
	}
	if admin == nil {
		logCtx.Warn("Login attempt failed: repository returned nil admin")
		return "", ErrAuthenticationFailed
	}

	// 2. 验证密码
	if !CheckPassword(password, admin.Password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return "", ErrAuthenticationFailed
	}

	// 3. 生成 JWT Token
	token, err := s.generateJWT(admin.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during login")
		return "", ErrInternalServer
	}

	logCtx.WithField("admin_id", admin.ID).Info("Admin logged in")
	return token, nil
}

// HashPassword 使用 bcrypt 对密码进行哈希处理
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword 验证密码是否与存储的哈希匹配
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// generateJWT 签发包含 admin_id 的 HS256 Token
func (s *AuthService) generateJWT(adminID uint) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": adminID,
		"exp":      now.Add(s.jwtExpiry).Unix(),
		"iat":      now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
