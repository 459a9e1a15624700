package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/middleware"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

type AuthService struct {
	UserRepo repository.AdminUserRepository
}

// NewAuthService 工厂方法
func NewAuthService(ur repository.AdminUserRepository) *AuthService {
	return &AuthService{UserRepo: ur}
}

// Login 后台登录，校验通过后签发 Access Token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginReq) (*dto.LoginResp, error) {
	user, err := s.UserRepo.GetByUsername(ctx, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("用户名或密码错误")
	} else if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errors.New("用户名或密码错误")
	}

	token, err := middleware.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	_ = s.UserRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login_at": time.Now().Unix()})

	return &dto.LoginResp{Token: token, Username: user.Username, Role: user.Role}, nil
}

// CreateUser 创建后台用户，密码 bcrypt 加密存储
func (s *AuthService) CreateUser(ctx context.Context, username, password, role string) (*model.AdminUser, error) {
	if role == "" {
		role = model.RoleViewer
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, errors.New("用户名已存在")
	}
	return user, nil
}
