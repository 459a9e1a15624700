package service

import (
	"testing"

	"gorm.io/gorm"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/apperr"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

type collectionFixture struct {
	db       *gorm.DB
	svc      *CollectionService
	coll     *model.Collection
	products []*model.Product
}

// setupCollectionFixture 集合内按序放入 4 个商品
func setupCollectionFixture(t *testing.T) *collectionFixture {
	t.Helper()
	db := setupTestDB(t)
	svc := NewCollectionService(repository.NewCollectionRepository(db), repository.NewProductRepository(db))

	pt := createProductType(t, db, "mug")
	names := []string{"mug-a", "mug-b", "mug-c", "mug-d"}
	products := make([]*model.Product, 0, len(names))
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		p := createProduct(t, db, pt.ID, name)
		products = append(products, p)
		ids = append(ids, p.ID)
	}

	coll, err := svc.CreateCollection(testCtx, &dto.CollectionCreateReq{
		Name:       "Featured",
		ProductIDs: ids,
	})
	if err != nil {
		t.Fatalf("创建集合失败: %v", err)
	}
	return &collectionFixture{db: db, svc: svc, coll: coll, products: products}
}

func (f *collectionFixture) order(t *testing.T) []int64 {
	t.Helper()
	joins, err := f.svc.ListProducts(testCtx, f.coll.ID)
	if err != nil {
		t.Fatalf("查询集合商品失败: %v", err)
	}
	ids := make([]int64, 0, len(joins))
	for _, j := range joins {
		ids = append(ids, j.ProductID)
	}
	return ids
}

func assertOrder(t *testing.T, got []int64, want []*model.Product) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("集合商品数错误: %v", got)
	}
	for i := range want {
		if got[i] != want[i].ID {
			t.Fatalf("顺序错误, 位置 %d 期望 %d 得到 %v", i, want[i].ID, got)
		}
	}
}

func TestCreateCollectionDuplicateSlug(t *testing.T) {
	f := setupCollectionFixture(t)

	// 夹具已占用 slug "featured"
	_, err := f.svc.CreateCollection(testCtx, &dto.CollectionCreateReq{Name: "Featured"})
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeUnique || v.Field != "slug" {
		t.Fatalf("重复集合 slug 应报 unique, 得到 %v", err)
	}
}

func TestAddProductsAppendsInOrder(t *testing.T) {
	f := setupCollectionFixture(t)
	p := f.products
	assertOrder(t, f.order(t), []*model.Product{p[0], p[1], p[2], p[3]})

	// 已在集合内的跳过, 新商品追加到末尾
	pt := createProductType(t, f.db, "shirt")
	extra := createProduct(t, f.db, pt.ID, "shirt-a")
	if err := f.svc.AddProducts(testCtx, f.coll.ID, []int64{p[1].ID, extra.ID}); err != nil {
		t.Fatalf("追加失败: %v", err)
	}
	assertOrder(t, f.order(t), []*model.Product{p[0], p[1], p[2], p[3], extra})
}

func TestAddProductsValidation(t *testing.T) {
	f := setupCollectionFixture(t)

	// 列表内重复
	err := f.svc.AddProducts(testCtx, f.coll.ID, []int64{f.products[0].ID, f.products[0].ID})
	if v, ok := apperr.AsValidation(err); !ok || v.Code != apperr.CodeDuplicatedInputItem {
		t.Errorf("重复商品应报 duplicated_input_item, 得到 %v", err)
	}

	// 商品不存在, 整体失败并罗列
	err = f.svc.AddProducts(testCtx, f.coll.ID, []int64{f.products[0].ID, 999998, 999999})
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeNotFound {
		t.Fatalf("期望 not_found, 得到 %v", err)
	}
	if len(v.Params) != 2 {
		t.Errorf("应罗列全部缺失商品: %v", v.Params)
	}

	// 集合不存在
	err = f.svc.AddProducts(testCtx, 999999, []int64{f.products[0].ID})
	if v, ok := apperr.AsValidation(err); !ok || v.Code != apperr.CodeNotFound {
		t.Errorf("集合不存在应报 not_found, 得到 %v", err)
	}
}

func TestReorderProductsRelativeMoves(t *testing.T) {
	f := setupCollectionFixture(t)
	p := f.products

	// a 向后两位: b c a d; d 向前一位: b c d a
	err := f.svc.ReorderProducts(testCtx, f.coll.ID, []dto.MoveProductInput{
		{ProductID: p[0].ID, SortOrder: 2},
		{ProductID: p[3].ID, SortOrder: -1},
	})
	if err != nil {
		t.Fatalf("重排失败: %v", err)
	}
	assertOrder(t, f.order(t), []*model.Product{p[1], p[2], p[3], p[0]})
}

func TestReorderProductsClampsToBounds(t *testing.T) {
	f := setupCollectionFixture(t)
	p := f.products

	// 偏移越界钳到边界: a 向后 100 位落到末尾
	err := f.svc.ReorderProducts(testCtx, f.coll.ID, []dto.MoveProductInput{
		{ProductID: p[0].ID, SortOrder: 100},
	})
	if err != nil {
		t.Fatalf("重排失败: %v", err)
	}
	assertOrder(t, f.order(t), []*model.Product{p[1], p[2], p[3], p[0]})
}

func TestReorderProductsZeroOffsetIsNoop(t *testing.T) {
	f := setupCollectionFixture(t)
	p := f.products

	var before []model.CollectionProduct
	f.db.Where("collection_id = ?", f.coll.ID).Order("id").Find(&before)

	err := f.svc.ReorderProducts(testCtx, f.coll.ID, []dto.MoveProductInput{
		{ProductID: p[0].ID, SortOrder: 0},
		{ProductID: p[2].ID, SortOrder: 0},
	})
	if err != nil {
		t.Fatalf("重排失败: %v", err)
	}

	// 序列没变, 一个字节都不写: updated_at 不应变化
	var after []model.CollectionProduct
	f.db.Where("collection_id = ?", f.coll.ID).Order("id").Find(&after)
	for i := range before {
		if !before[i].UpdatedAt.Equal(after[i].UpdatedAt) {
			t.Errorf("空操作不应触发任何写入: %d", before[i].ID)
		}
		if before[i].SortOrder != after[i].SortOrder {
			t.Errorf("排序位不应变化: %d", before[i].ID)
		}
	}
}

func TestReorderProductsMissingProductFailsWhole(t *testing.T) {
	f := setupCollectionFixture(t)
	p := f.products

	err := f.svc.ReorderProducts(testCtx, f.coll.ID, []dto.MoveProductInput{
		{ProductID: p[0].ID, SortOrder: 1},
		{ProductID: 999999, SortOrder: -1},
	})
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeNotFound {
		t.Fatalf("期望 not_found, 得到 %v", err)
	}

	// 合法的那条也不能生效
	assertOrder(t, f.order(t), []*model.Product{p[0], p[1], p[2], p[3]})
}

func TestRemoveProducts(t *testing.T) {
	f := setupCollectionFixture(t)
	p := f.products

	if err := f.svc.RemoveProducts(testCtx, f.coll.ID, []int64{p[1].ID}); err != nil {
		t.Fatalf("移出失败: %v", err)
	}
	assertOrder(t, f.order(t), []*model.Product{p[0], p[2], p[3]})

	// 移出后重新加入, 落到末尾
	if err := f.svc.AddProducts(testCtx, f.coll.ID, []int64{p[1].ID}); err != nil {
		t.Fatalf("重新加入失败: %v", err)
	}
	assertOrder(t, f.order(t), []*model.Product{p[0], p[2], p[3], p[1]})
}
