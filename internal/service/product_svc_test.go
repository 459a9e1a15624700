package service

import (
	"testing"

	"gorm.io/gorm"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/apperr"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

type productFixture struct {
	db        *gorm.DB
	svc       *ProductService
	prodRepo  repository.ProductRepository
	brand     *model.Attribute // 商品维度, 必填
	color     *model.Attribute // 变体维度
	prodType  *model.ProductType
	warehouse *model.Warehouse
}

func setupProductFixture(t *testing.T) *productFixture {
	t.Helper()
	db := setupTestDB(t)
	prodRepo := repository.NewProductRepository(db)
	attrRepo := repository.NewAttributeRepository(db)
	collRepo := repository.NewCollectionRepository(db)
	attrSvc := NewAttributeService(attrRepo)
	svc := NewProductService(db, prodRepo, attrRepo, collRepo, attrSvc, nil)

	f := &productFixture{db: db, svc: svc, prodRepo: prodRepo}
	f.brand = createAttribute(t, db, "Brand", "brand", true, true)
	f.color = createAttribute(t, db, "Color", "color", false, true)

	pt, err := svc.CreateProductType(testCtx, &dto.ProductTypeCreateReq{
		Name:                "Mug",
		HasVariants:         true,
		ProductAttributeIDs: []int64{f.brand.ID},
		VariantAttributeIDs: []int64{f.color.ID},
	})
	if err != nil {
		t.Fatalf("创建商品类型失败: %v", err)
	}
	f.prodType = pt

	f.warehouse = &model.Warehouse{Name: "East", Slug: "east"}
	if err := db.Create(f.warehouse).Error; err != nil {
		t.Fatalf("创建仓库失败: %v", err)
	}
	return f
}

func (f *productFixture) createReq(name string) *dto.CreateProductReq {
	return &dto.CreateProductReq{
		ProductTypeID: f.prodType.ID,
		Name:          name,
		Attributes:    []dto.AttributeValueInput{{Slug: "brand", Values: []string{"Acme"}}},
	}
}

func floatPtr(v float64) *float64 { return &v }

// ==================== 商品创建 ====================

func TestCreateProductVariantlessGetsBaseVariant(t *testing.T) {
	f := setupProductFixture(t)

	product, err := f.svc.CreateProduct(testCtx, f.createReq("Plain Mug"))
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	if product.VariantState != model.ProductVariantless {
		t.Errorf("无变体输入应处于 variantless: %s", product.VariantState)
	}
	if product.BaseVariantID == nil {
		t.Fatal("应持有占位基础变体")
	}
	if len(product.Variants) != 1 || !product.Variants[0].IsBase {
		t.Fatalf("应只有一个基础变体: %+v", product.Variants)
	}
	if product.Variants[0].SKU != "plain-mug" {
		t.Errorf("基础变体 SKU 取商品 slug: %s", product.Variants[0].SKU)
	}
}

func TestCreateProductDuplicateSlug(t *testing.T) {
	f := setupProductFixture(t)

	if _, err := f.svc.CreateProduct(testCtx, f.createReq("Plain Mug")); err != nil {
		t.Fatalf("首次创建失败: %v", err)
	}
	_, err := f.svc.CreateProduct(testCtx, f.createReq("Plain Mug"))
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeUnique || v.Field != "slug" {
		t.Fatalf("重复商品 slug 应报 unique, 得到 %v", err)
	}

	// 类型侧同一规则: slug "mug" 已被夹具占用
	_, err = f.svc.CreateProductType(testCtx, &dto.ProductTypeCreateReq{Name: "Mug"})
	if v, ok := apperr.AsValidation(err); !ok || v.Code != apperr.CodeUnique {
		t.Fatalf("重复类型 slug 应报 unique, 得到 %v", err)
	}
}

func TestCreateProductWithVariants(t *testing.T) {
	f := setupProductFixture(t)

	req := f.createReq("Color Mug")
	req.Variants = []dto.VariantInput{
		{
			SKU:        "mug-red",
			Price:      floatPtr(19.99),
			Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Red"}}},
			Stocks:     []dto.StockInput{{WarehouseID: f.warehouse.ID, Quantity: 5}},
		},
		{
			SKU:        "mug-blue",
			Price:      floatPtr(9.99),
			Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Blue"}}},
		},
	}
	product, err := f.svc.CreateProduct(testCtx, req)
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	if product.VariantState != model.ProductVariantful {
		t.Errorf("有变体输入应处于 variantful: %s", product.VariantState)
	}
	if product.BaseVariantID != nil {
		t.Error("variantful 商品不应持有基础变体指针")
	}
	if len(product.Variants) != 2 {
		t.Fatalf("应有 2 个变体: %+v", product.Variants)
	}
	if product.Variants[0].Name != "Red" {
		t.Errorf("变体展示名由取值生成: %s", product.Variants[0].Name)
	}
	if product.MinimalVariantPriceAmount != 999 {
		t.Errorf("最低价缓存应为 999 分, 实际 %d", product.MinimalVariantPriceAmount)
	}

	stocks, err := f.prodRepo.ListStocksByVariant(testCtx, product.Variants[0].ID)
	if err != nil || len(stocks) != 1 || stocks[0].Quantity != 5 {
		t.Errorf("库存落库错误: %+v err=%v", stocks, err)
	}
}

func TestCreateProductRequiresCoveredAttributes(t *testing.T) {
	f := setupProductFixture(t)

	// 必填的 brand 没给
	_, err := f.svc.CreateProduct(testCtx, &dto.CreateProductReq{
		ProductTypeID: f.prodType.ID,
		Name:          "Bare Mug",
	})
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeRequired {
		t.Fatalf("缺必填属性应报 required, 得到 %v", err)
	}

	var count int64
	f.db.Model(&model.Product{}).Count(&count)
	if count != 0 {
		t.Error("校验失败不应落库")
	}
}

func TestCreateProductAccumulatesVariantErrors(t *testing.T) {
	f := setupProductFixture(t)

	req := f.createReq("Broken Mug")
	req.Variants = []dto.VariantInput{
		{
			// 负价格 + 没有属性
			SKU:   "dup",
			Price: floatPtr(-1),
		},
		{
			// SKU 批内重复 + 库存仓库重复
			SKU:        "dup",
			Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Red"}}},
			Stocks: []dto.StockInput{
				{WarehouseID: f.warehouse.ID, Quantity: 1},
				{WarehouseID: f.warehouse.ID, Quantity: 2},
			},
		},
	}
	_, err := f.svc.CreateProduct(testCtx, req)
	list, ok := apperr.AsList(err)
	if !ok {
		t.Fatalf("期望错误集合, 得到 %v", err)
	}
	if len(list.Errors) != 4 {
		t.Fatalf("应累积 4 个错误, 得到 %d: %v", len(list.Errors), list)
	}

	byField := make(map[string]*apperr.ValidationError, len(list.Errors))
	for _, e := range list.Errors {
		byField[e.Field] = e
	}
	if e := byField["variants[0].price"]; e == nil || e.Code != apperr.CodeInvalid || e.Index != 0 {
		t.Errorf("负价格错误缺失或下标不对: %+v", e)
	}
	if e := byField["variants[0].attributes"]; e == nil || e.Code != apperr.CodeRequired {
		t.Errorf("缺属性错误缺失: %+v", e)
	}
	if e := byField["variants[1].sku"]; e == nil || e.Code != apperr.CodeUnique || e.Index != 1 {
		t.Errorf("SKU 重复错误缺失或下标不对: %+v", e)
	}
	if e := byField["variants[1].stocks[1].warehouse_id"]; e == nil || e.Code != apperr.CodeDuplicatedInputItem {
		t.Errorf("库存仓库重复错误缺失: %+v", e)
	}

	var count int64
	f.db.Model(&model.Product{}).Count(&count)
	if count != 0 {
		t.Error("整体失败不应落库")
	}
}

func TestCreateProductDuplicateCombinationInBatch(t *testing.T) {
	f := setupProductFixture(t)

	req := f.createReq("Twin Mug")
	req.Variants = []dto.VariantInput{
		{SKU: "twin-1", Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Red"}}}},
		// 大小写与空白在比对前归一
		{SKU: "twin-2", Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{" red "}}}},
	}
	_, err := f.svc.CreateProduct(testCtx, req)
	list, ok := apperr.AsList(err)
	if !ok || len(list.Errors) != 1 {
		t.Fatalf("期望一个组合重复错误, 得到 %v", err)
	}
	e := list.Errors[0]
	if e.Code != apperr.CodeAlreadyExists || e.Index != 1 {
		t.Errorf("组合重复错误形态不对: %+v", e)
	}
}

func TestCreateProductAttachesToCollections(t *testing.T) {
	f := setupProductFixture(t)
	coll := &model.Collection{Name: "Featured", Slug: "featured"}
	if err := f.db.Create(coll).Error; err != nil {
		t.Fatalf("创建集合失败: %v", err)
	}

	req := f.createReq("Listed Mug")
	req.CollectionIDs = []int64{coll.ID}
	product, err := f.svc.CreateProduct(testCtx, req)
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	var join model.CollectionProduct
	err = f.db.Where("collection_id = ? AND product_id = ?", coll.ID, product.ID).First(&join).Error
	if err != nil {
		t.Errorf("商品应挂入集合: %v", err)
	}
}

// ==================== 变体追加 ====================

func TestAddVariantTransitionsVariantless(t *testing.T) {
	f := setupProductFixture(t)

	product, err := f.svc.CreateProduct(testCtx, f.createReq("Morph Mug"))
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	baseID := *product.BaseVariantID

	variant, err := f.svc.AddVariant(testCtx, product.ID, &dto.VariantInput{
		SKU:        "morph-red",
		Price:      floatPtr(12.50),
		Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Red"}}},
	})
	if err != nil {
		t.Fatalf("追加变体失败: %v", err)
	}

	// 状态转移: 占位变体被物理删除, base 指针清空
	got, err := f.prodRepo.GetByID(testCtx, product.ID)
	if err != nil {
		t.Fatalf("查询商品失败: %v", err)
	}
	if got.VariantState != model.ProductVariantful {
		t.Errorf("应转为 variantful: %s", got.VariantState)
	}
	if got.BaseVariantID != nil {
		t.Error("base 指针应清空")
	}
	if got.MinimalVariantPriceAmount != 1250 {
		t.Errorf("最低价缓存应更新: %d", got.MinimalVariantPriceAmount)
	}

	var count int64
	f.db.Unscoped().Model(&model.ProductVariant{}).Where("id = ?", baseID).Count(&count)
	if count != 0 {
		t.Error("占位基础变体应被物理删除")
	}
	if len(got.Variants) != 1 || got.Variants[0].ID != variant.ID {
		t.Errorf("商品应只剩真实变体: %+v", got.Variants)
	}
}

func TestAddVariantRejectsDuplicateCombination(t *testing.T) {
	f := setupProductFixture(t)

	req := f.createReq("Dup Mug")
	req.Variants = []dto.VariantInput{
		{SKU: "dup-red", Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Red"}}}},
	}
	product, err := f.svc.CreateProduct(testCtx, req)
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	_, err = f.svc.AddVariant(testCtx, product.ID, &dto.VariantInput{
		SKU:        "dup-red-2",
		Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"RED"}}},
	})
	list, ok := apperr.AsList(err)
	if !ok || len(list.Errors) != 1 || list.Errors[0].Code != apperr.CodeAlreadyExists {
		t.Fatalf("组合与已有变体重复应报 already_exists, 得到 %v", err)
	}
}

func TestAddVariantRejectsTakenSKU(t *testing.T) {
	f := setupProductFixture(t)

	req := f.createReq("Sku Mug")
	req.Variants = []dto.VariantInput{
		{SKU: "taken", Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Red"}}}},
	}
	product, err := f.svc.CreateProduct(testCtx, req)
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	_, err = f.svc.AddVariant(testCtx, product.ID, &dto.VariantInput{
		SKU:        "taken",
		Attributes: []dto.AttributeValueInput{{Slug: "color", Values: []string{"Blue"}}},
	})
	list, ok := apperr.AsList(err)
	if !ok || len(list.Errors) != 1 || list.Errors[0].Code != apperr.CodeAlreadyExists {
		t.Fatalf("SKU 已被占用应报 already_exists, 得到 %v", err)
	}
}

// ==================== 更新与删除 ====================

func TestUpdateProductPartialAttributes(t *testing.T) {
	f := setupProductFixture(t)

	product, err := f.svc.CreateProduct(testCtx, f.createReq("Edit Mug"))
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}

	published := true
	updated, err := f.svc.UpdateProduct(testCtx, product.ID, &dto.UpdateProductReq{
		Name:        "Edited Mug",
		IsPublished: &published,
		// 只改 brand, 更新场景不要求必填全覆盖
		Attributes: []dto.AttributeValueInput{{Slug: "brand", Values: []string{"Globex"}}},
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}
	if updated.Name != "Edited Mug" || !updated.IsPublished {
		t.Errorf("基本信息未更新: %+v", updated)
	}

	attrRepo := repository.NewAttributeRepository(f.db)
	assignment, err := attrRepo.GetProductAssignment(testCtx, product.ID, f.brand.ID)
	if err != nil {
		t.Fatalf("赋值关联丢失: %v", err)
	}
	rows, _ := attrRepo.ListProductAssignmentValues(testCtx, []int64{assignment.ID})
	if len(rows) != 1 || rows[0].Slug != "globex" {
		t.Errorf("brand 取值应被替换: %+v", rows)
	}
}

func TestDeleteProductSoftDeletes(t *testing.T) {
	f := setupProductFixture(t)

	product, err := f.svc.CreateProduct(testCtx, f.createReq("Gone Mug"))
	if err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	if err := f.svc.DeleteProduct(testCtx, product.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	if _, err := f.svc.GetProduct(testCtx, product.ID); err == nil {
		t.Error("删除后不应再查到")
	}
	var count int64
	f.db.Unscoped().Model(&model.Product{}).Where("id = ?", product.ID).Count(&count)
	if count != 1 {
		t.Error("商品应软删除而非物理删除")
	}

	// 再删一次报 not_found
	err = f.svc.DeleteProduct(testCtx, product.ID)
	if v, ok := apperr.AsValidation(err); !ok || v.Code != apperr.CodeNotFound {
		t.Errorf("期望 not_found, 得到 %v", err)
	}
}

func TestListProductsFilter(t *testing.T) {
	f := setupProductFixture(t)

	for _, name := range []string{"Red Mug", "Blue Mug"} {
		if _, err := f.svc.CreateProduct(testCtx, f.createReq(name)); err != nil {
			t.Fatalf("创建商品失败: %v", err)
		}
	}

	products, total, err := f.svc.ListProducts(testCtx, repository.ProductFilter{Keyword: "Red"})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if total != 1 || len(products) != 1 || products[0].Name != "Red Mug" {
		t.Errorf("关键词过滤错误: total=%d %+v", total, products)
	}
}
