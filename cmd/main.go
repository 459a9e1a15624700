package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"storefront_v1/internal/controller"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
	"storefront_v1/internal/router"
	"storefront_v1/internal/service"
	"storefront_v1/internal/task"
	"storefront_v1/pkg/database"
	"storefront_v1/pkg/webhook"
)

// @title Storefront Catalog API
// @version 1.0
// @description 商品目录与运费一致性服务
// @BasePath /api/v1
func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	taskManager := initTasks(deps)
	defer taskManager.Stop()

	// 4. 初始化路由
	r := gin.Default()
	router.InitRoutes(r, deps.AuthCtl, deps.AttrCtl, deps.ProductCtl, deps.CollCtl, deps.ShipCtl)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB         *gorm.DB
	Dispatcher *webhook.Dispatcher

	// Repositories
	AttrRepo    repository.AttributeRepository
	ProductRepo repository.ProductRepository
	CollRepo    repository.CollectionRepository
	ShipRepo    repository.ShippingRepository
	UserRepo    repository.AdminUserRepository

	// Controllers
	AuthCtl    *controller.AuthController
	AttrCtl    *controller.AttributeController
	ProductCtl *controller.ProductController
	CollCtl    *controller.CollectionController
	ShipCtl    *controller.ShippingController
}

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_DSN",
		"host=localhost user=storefront password=storefront dbname=storefront port=5432 sslmode=disable")
	verbose := getEnv("DB_VERBOSE", "") == "1"

	return database.InitDB(dsn, verbose,
		// Catalog
		&model.Attribute{}, &model.AttributeValue{},
		&model.AttributeProduct{}, &model.AttributeVariant{},
		&model.AssignedProductAttribute{}, &model.AssignedProductAttributeValue{},
		&model.AssignedVariantAttribute{}, &model.AssignedVariantAttributeValue{},
		// Product
		&model.ProductType{}, &model.Product{}, &model.ProductVariant{}, &model.Stock{},
		// Collection
		&model.Collection{}, &model.CollectionProduct{},
		// Shipping
		&model.ShippingProfile{}, &model.ShippingProfileWarehouseGroup{},
		&model.Warehouse{}, &model.ShippingGroupWarehouse{},
		&model.ShippingZone{}, &model.ShippingCountry{}, &model.ShippingMethod{},
		// Admin
		&model.AdminUser{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	attrRepo := repository.NewAttributeRepository(db)
	productRepo := repository.NewProductRepository(db)
	collRepo := repository.NewCollectionRepository(db)
	shipRepo := repository.NewShippingRepository(db)
	userRepo := repository.NewAdminUserRepository(db)

	// -------- Webhook 推送 --------
	var endpoints []string
	if raw := getEnv("WEBHOOK_ENDPOINTS", ""); raw != "" {
		endpoints = strings.Split(raw, ",")
	}
	dispatcher := webhook.NewDispatcher(endpoints)

	// -------- 业务服务 --------
	attrSvc := service.NewAttributeService(attrRepo)
	loaderSvc := service.NewAttributeLoaderService(attrRepo)
	productSvc := service.NewProductService(db, productRepo, attrRepo, collRepo, attrSvc, dispatcher)
	collSvc := service.NewCollectionService(collRepo, productRepo)
	shipSvc := service.NewShippingService(db, shipRepo, productRepo, dispatcher)
	authSvc := service.NewAuthService(userRepo)

	ensureDefaultProfile(db)

	return &Dependencies{
		DB:          db,
		Dispatcher:  dispatcher,
		AttrRepo:    attrRepo,
		ProductRepo: productRepo,
		CollRepo:    collRepo,
		ShipRepo:    shipRepo,
		UserRepo:    userRepo,
		AuthCtl:     controller.NewAuthController(authSvc),
		AttrCtl:     controller.NewAttributeController(attrSvc, loaderSvc),
		ProductCtl:  controller.NewProductController(productSvc),
		CollCtl:     controller.NewCollectionController(collSvc),
		ShipCtl:     controller.NewShippingController(shipSvc),
	}
}

// ensureDefaultProfile 保证默认运费档案存在，商品移出档案时要有回落点
func ensureDefaultProfile(db *gorm.DB) {
	var count int64
	db.Model(&model.ShippingProfile{}).Where("\"default\" = ?", true).Count(&count)
	if count > 0 {
		return
	}
	if err := db.Create(&model.ShippingProfile{Name: "Default", Default: true}).Error; err != nil {
		log.Printf("⚠️ 默认运费档案创建失败: %v", err)
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) *task.TaskManager {
	tm := task.NewTaskManager(&task.TaskManagerDeps{
		ProductRepo: deps.ProductRepo,
		Dispatcher:  deps.Dispatcher,
	}, nil)
	tm.Start()
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
