package task

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

func setupTaskDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开内存库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.ProductType{}, &model.Product{}, &model.ProductVariant{}); err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

func TestSweepOnceFixesDriftedCache(t *testing.T) {
	db := setupTaskDB(t)
	repo := repository.NewProductRepository(db)

	pt := &model.ProductType{Name: "Mug", Slug: "mug"}
	if err := db.Create(pt).Error; err != nil {
		t.Fatalf("创建类型失败: %v", err)
	}

	// 缓存与真实最低价有出入的商品
	drifted := &model.Product{ProductTypeID: pt.ID, Name: "a", Slug: "a",
		VariantState: model.ProductVariantful, MinimalVariantPriceAmount: 9999}
	// 缓存已一致的商品
	stable := &model.Product{ProductTypeID: pt.ID, Name: "b", Slug: "b",
		VariantState: model.ProductVariantful, MinimalVariantPriceAmount: 500}
	for _, p := range []*model.Product{drifted, stable} {
		if err := db.Create(p).Error; err != nil {
			t.Fatalf("创建商品失败: %v", err)
		}
	}
	variants := []*model.ProductVariant{
		{ProductID: drifted.ID, SKU: "a-1", PriceAmount: 1200, IsEnabled: true},
		{ProductID: drifted.ID, SKU: "a-2", PriceAmount: 800, IsEnabled: true},
		// 停用与占位变体不参与最低价
		{ProductID: drifted.ID, SKU: "a-3", PriceAmount: 100, IsEnabled: false},
		{ProductID: drifted.ID, SKU: "a-base", PriceAmount: 1, IsEnabled: true, IsBase: true},
		{ProductID: stable.ID, SKU: "b-1", PriceAmount: 500, IsEnabled: true},
	}
	for _, v := range variants {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("创建变体失败: %v", err)
		}
	}

	sweep := NewPriceSweepTask(repo, nil)
	sweep.SweepOnce(context.Background())

	var got model.Product
	db.First(&got, drifted.ID)
	if got.MinimalVariantPriceAmount != 800 {
		t.Errorf("漂移的缓存应被修正为 800, 实际 %d", got.MinimalVariantPriceAmount)
	}

	// 已一致的商品不应被改动
	var before, after model.Product
	db.First(&before, stable.ID)
	sweep.SweepOnce(context.Background())
	db.First(&after, stable.ID)
	if !before.UpdatedAt.Equal(after.UpdatedAt) {
		t.Error("缓存一致的商品不应被回写")
	}
	if after.MinimalVariantPriceAmount != 500 {
		t.Errorf("稳定商品缓存不应变化: %d", after.MinimalVariantPriceAmount)
	}
}

func TestTaskManagerTriggerRespectsConfig(t *testing.T) {
	db := setupTaskDB(t)
	repo := repository.NewProductRepository(db)

	disabled := NewTaskManager(&TaskManagerDeps{ProductRepo: repo}, &TaskManagerConfig{PriceSweepEnabled: false})
	if err := disabled.TriggerPriceSweep(context.Background()); err != ErrTaskDisabled {
		t.Errorf("关闭的任务应拒绝手动触发, 得到 %v", err)
	}
	if disabled.Status()["price_sweep"] {
		t.Error("状态应反映任务未启用")
	}

	enabled := NewTaskManager(&TaskManagerDeps{ProductRepo: repo}, nil)
	if err := enabled.TriggerPriceSweep(context.Background()); err != nil {
		t.Errorf("开启的任务应可手动触发: %v", err)
	}
	if !enabled.Status()["price_sweep"] {
		t.Error("状态应反映任务已启用")
	}
}
