package service

import (
	"testing"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/middleware"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

func setupAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := setupTestDB(t)
	return NewAuthService(repository.NewAdminUserRepository(db))
}

func TestLoginIssuesToken(t *testing.T) {
	svc := setupAuthService(t)

	if _, err := svc.CreateUser(testCtx, "admin", "secret", model.RoleAdmin); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	resp, err := svc.Login(testCtx, &dto.LoginReq{Username: "admin", Password: "secret"})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if resp.Token == "" || resp.Role != model.RoleAdmin {
		t.Fatalf("登录响应错误: %+v", resp)
	}

	claims, err := middleware.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.Username != "admin" || claims.Role != model.RoleAdmin {
		t.Errorf("Token 声明错误: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuthService(t)

	if _, err := svc.CreateUser(testCtx, "admin", "secret", ""); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	// 错误密码与不存在的用户给同一句提示
	if _, err := svc.Login(testCtx, &dto.LoginReq{Username: "admin", Password: "wrong"}); err == nil {
		t.Error("错误密码应拒绝登录")
	}
	if _, err := svc.Login(testCtx, &dto.LoginReq{Username: "ghost", Password: "secret"}); err == nil {
		t.Error("不存在的用户应拒绝登录")
	}
}

func TestCreateUserDefaultsAndUnique(t *testing.T) {
	svc := setupAuthService(t)

	user, err := svc.CreateUser(testCtx, "viewer", "pw", "")
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	if user.Role != model.RoleViewer {
		t.Errorf("缺省角色应为 viewer: %s", user.Role)
	}
	if user.PasswordHash == "pw" {
		t.Error("密码不应明文存储")
	}

	if _, err := svc.CreateUser(testCtx, "viewer", "pw2", ""); err == nil {
		t.Error("重复用户名应拒绝")
	}
}
