package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

// setupTestDB 每个用例一个独立的内存库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开内存库失败: %v", err)
	}
	err = db.AutoMigrate(
		&model.Attribute{}, &model.AttributeValue{},
		&model.AttributeProduct{}, &model.AttributeVariant{},
		&model.AssignedProductAttribute{}, &model.AssignedProductAttributeValue{},
		&model.AssignedVariantAttribute{}, &model.AssignedVariantAttributeValue{},
		&model.ProductType{}, &model.Product{}, &model.ProductVariant{}, &model.Stock{},
		&model.Collection{}, &model.CollectionProduct{},
		&model.ShippingProfile{}, &model.ShippingProfileWarehouseGroup{},
		&model.Warehouse{}, &model.ShippingGroupWarehouse{},
		&model.ShippingZone{}, &model.ShippingCountry{}, &model.ShippingMethod{},
		&model.AdminUser{},
	)
	if err != nil {
		t.Fatalf("迁移失败: %v", err)
	}
	return db
}

// ==================== 夹具 ====================

func createAttribute(t *testing.T, db *gorm.DB, name, slug string, required, visible bool) *model.Attribute {
	t.Helper()
	attr := &model.Attribute{Name: name, Slug: slug, ValueRequired: required, VisibleInStorefront: visible}
	if err := db.Create(attr).Error; err != nil {
		t.Fatalf("创建属性失败: %v", err)
	}
	return attr
}

func createProductType(t *testing.T, db *gorm.DB, name string) *model.ProductType {
	t.Helper()
	pt := &model.ProductType{Name: name, Slug: name, HasVariants: true}
	if err := db.Create(pt).Error; err != nil {
		t.Fatalf("创建商品类型失败: %v", err)
	}
	return pt
}

func bindProductAttr(t *testing.T, db *gorm.DB, typeID, attrID int64) {
	t.Helper()
	if err := db.Create(&model.AttributeProduct{AttributeID: attrID, ProductTypeID: typeID}).Error; err != nil {
		t.Fatalf("绑定商品属性失败: %v", err)
	}
}

func bindVariantAttr(t *testing.T, db *gorm.DB, typeID, attrID int64) {
	t.Helper()
	if err := db.Create(&model.AttributeVariant{AttributeID: attrID, ProductTypeID: typeID}).Error; err != nil {
		t.Fatalf("绑定变体属性失败: %v", err)
	}
}

func createProduct(t *testing.T, db *gorm.DB, typeID int64, name string) *model.Product {
	t.Helper()
	p := &model.Product{ProductTypeID: typeID, Name: name, Slug: name, VariantState: model.ProductVariantless}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return p
}

func newAttrService(db *gorm.DB) (*AttributeService, repository.AttributeRepository) {
	repo := repository.NewAttributeRepository(db)
	return NewAttributeService(repo), repo
}

var testCtx = context.Background()
