package model

// 管理员角色
const (
	RoleAdmin  = "admin"  // 目录管理权限
	RoleStaff  = "staff"  // 目录管理权限
	RoleViewer = "viewer" // 只读，前台可见性过滤生效
)

// AdminUser 后台用户
type AdminUser struct {
	BaseModel
	Username     string `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:20;default:viewer"`
	LastLoginAt  int64  `gorm:"default:0"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// CanManageCatalog 是否具备目录管理权限
// 读取侧的前台可见性过滤以此为开关
func (u *AdminUser) CanManageCatalog() bool {
	return u.Role == RoleAdmin || u.Role == RoleStaff
}
