package service

import (
	"testing"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/apperr"
	"storefront_v1/internal/model"
)

func TestCreateAttributeDuplicateSlug(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)

	if _, err := svc.CreateAttribute(testCtx, &dto.AttributeCreateReq{Name: "Color", Slug: "color"}); err != nil {
		t.Fatalf("首次创建失败: %v", err)
	}
	// 只有唯一冲突才报 unique, 其他数据库故障不得被吞成校验错误
	_, err := svc.CreateAttribute(testCtx, &dto.AttributeCreateReq{Name: "Colour", Slug: "color"})
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeUnique || v.Field != "slug" {
		t.Fatalf("重复 slug 应报 unique, 得到 %v", err)
	}
}

func TestResolveAttributesByIDAndSlug(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)

	color := createAttribute(t, db, "Color", "color", false, true)
	size := createAttribute(t, db, "Size", "size", false, true)
	candidates := []model.Attribute{*color, *size}

	inputs := []dto.AttributeValueInput{
		{ID: color.ID, Values: []string{"Red"}},
		{Slug: "size", Values: []string{"XL", "L"}},
	}
	pairs, err := svc.ResolveAttributes(testCtx, inputs, candidates, AttributeModeVariant)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("期望 2 个结果对, 得到 %d", len(pairs))
	}
	byID := make(map[int64][]string)
	for _, p := range pairs {
		byID[p.Attribute.ID] = p.RawValues
	}
	if got := byID[color.ID]; len(got) != 1 || got[0] != "Red" {
		t.Errorf("color 取值错误: %v", got)
	}
	if got := byID[size.ID]; len(got) != 2 || got[0] != "XL" || got[1] != "L" {
		t.Errorf("size 取值应保持输入顺序: %v", got)
	}
}

func TestResolveAttributesNeitherIDNorSlug(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", false, true)

	_, err := svc.ResolveAttributes(testCtx,
		[]dto.AttributeValueInput{{Values: []string{"Red"}}},
		[]model.Attribute{*color}, AttributeModeVariant)
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeRequired {
		t.Fatalf("期望 required 错误, 得到 %v", err)
	}
}

func TestResolveAttributesMissingReferences(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", false, true)

	// 一个不存在的 ID、一个不存在的 slug, 必须一次性全部罗列
	_, err := svc.ResolveAttributes(testCtx, []dto.AttributeValueInput{
		{ID: color.ID, Values: []string{"Red"}},
		{ID: 999, Values: []string{"x"}},
		{Slug: "ghost", Values: []string{"y"}},
	}, []model.Attribute{*color}, AttributeModeVariant)
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeNotFound {
		t.Fatalf("期望 not_found 错误, 得到 %v", err)
	}
	if len(v.Params) != 2 {
		t.Errorf("应罗列全部未解析引用, 得到 %v", v.Params)
	}
}

func TestResolveAttributesScopedToCandidates(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", false, true)
	other := createAttribute(t, db, "Material", "material", false, true)

	// material 存在, 但不在候选集内, 等同未找到
	_, err := svc.ResolveAttributes(testCtx,
		[]dto.AttributeValueInput{{ID: other.ID, Values: []string{"wood"}}},
		[]model.Attribute{*color}, AttributeModeVariant)
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeNotFound {
		t.Fatalf("期望 not_found 错误, 得到 %v", err)
	}
}

func TestResolveAttributesEmptyCandidateSet(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)
	other := createAttribute(t, db, "Material", "material", false, true)

	// 类型在该维度没有任何适用属性时, 任何引用都不可解析,
	// 即便目录里确实存在这个属性也不能落到全目录去查
	pairs, err := svc.ResolveAttributes(testCtx,
		[]dto.AttributeValueInput{{ID: other.ID, Values: []string{"wood"}}},
		nil, AttributeModeVariant)
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeNotFound {
		t.Fatalf("空候选集下引用应报 not_found, 得到 %v (pairs=%+v)", err, pairs)
	}
	if len(v.Params) != 1 {
		t.Errorf("应罗列未解析引用, 得到 %v", v.Params)
	}
}

func TestResolveAttributesRequiredCoverage(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", true, true)
	size := createAttribute(t, db, "Size", "size", false, true)
	candidates := []model.Attribute{*color, *size}

	// product 模式缺必填属性 -> 整组报一次
	_, err := svc.ResolveAttributes(testCtx,
		[]dto.AttributeValueInput{{ID: size.ID, Values: []string{"XL"}}},
		candidates, AttributeModeProduct)
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeRequired {
		t.Fatalf("期望 required 错误, 得到 %v", err)
	}
	if len(v.Params) != 1 || v.Params[0] != "color" {
		t.Errorf("应点名缺失的属性 slug, 得到 %v", v.Params)
	}

	// 空输入同样触发覆盖校验
	_, err = svc.ResolveAttributes(testCtx, nil, candidates, AttributeModeProduct)
	if v, ok := apperr.AsValidation(err); !ok || v.Code != apperr.CodeRequired {
		t.Fatalf("空输入也应报 required, 得到 %v", err)
	}

	// variant 模式不做覆盖校验
	if _, err := svc.ResolveAttributes(testCtx, nil, candidates, AttributeModeVariant); err != nil {
		t.Fatalf("variant 模式空输入应通过, 得到 %v", err)
	}
}

func TestResolveAttributesRequiredEmptyValues(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", true, true)

	_, err := svc.ResolveAttributes(testCtx,
		[]dto.AttributeValueInput{{ID: color.ID, Values: []string{"  ", ""}}},
		[]model.Attribute{*color}, AttributeModeVariant)
	v, ok := apperr.AsValidation(err)
	if !ok || v.Code != apperr.CodeRequired {
		t.Fatalf("必填属性全空白取值应报 required, 得到 %v", err)
	}
}

func TestCommitProductAttributesCreatesValuesInOrder(t *testing.T) {
	db := setupTestDB(t)
	svc, repo := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", false, true)
	pt := createProductType(t, db, "mug")
	product := createProduct(t, db, pt.ID, "mug-a")

	pairs := []ResolvedAttribute{{Attribute: *color, RawValues: []string{"Navy Blue", "Red"}}}
	if err := svc.CommitProductAttributes(testCtx, repo, product.ID, pairs); err != nil {
		t.Fatalf("落库失败: %v", err)
	}

	// 取值被惰性创建, slug 由文本生成
	var values []model.AttributeValue
	if err := db.Where("attribute_id = ?", color.ID).Order("sort_order").Find(&values).Error; err != nil {
		t.Fatalf("查询取值失败: %v", err)
	}
	if len(values) != 2 || values[0].Slug != "navy-blue" || values[1].Slug != "red" {
		t.Fatalf("取值创建顺序错误: %+v", values)
	}

	assignment, err := repo.GetProductAssignment(testCtx, product.ID, color.ID)
	if err != nil {
		t.Fatalf("赋值关联未创建: %v", err)
	}
	rows, err := repo.ListProductAssignmentValues(testCtx, []int64{assignment.ID})
	if err != nil {
		t.Fatalf("查询赋值取值失败: %v", err)
	}
	if len(rows) != 2 || rows[0].Slug != "navy-blue" || rows[1].Slug != "red" {
		t.Errorf("赋值应按输入顺序: %+v", rows)
	}
}

func TestCommitProductAttributesReplacesValueSet(t *testing.T) {
	db := setupTestDB(t)
	svc, repo := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", false, true)
	size := createAttribute(t, db, "Size", "size", false, true)
	pt := createProductType(t, db, "mug")
	product := createProduct(t, db, pt.ID, "mug-a")

	first := []ResolvedAttribute{
		{Attribute: *color, RawValues: []string{"Red", "Blue"}},
		{Attribute: *size, RawValues: []string{"XL"}},
	}
	if err := svc.CommitProductAttributes(testCtx, repo, product.ID, first); err != nil {
		t.Fatalf("首次落库失败: %v", err)
	}

	// 再次提交只带 color, 其取值整体替换; size 保持不动
	second := []ResolvedAttribute{{Attribute: *color, RawValues: []string{"Green"}}}
	if err := svc.CommitProductAttributes(testCtx, repo, product.ID, second); err != nil {
		t.Fatalf("二次落库失败: %v", err)
	}

	colorAssign, _ := repo.GetProductAssignment(testCtx, product.ID, color.ID)
	rows, _ := repo.ListProductAssignmentValues(testCtx, []int64{colorAssign.ID})
	if len(rows) != 1 || rows[0].Slug != "green" {
		t.Errorf("color 取值集合应被整体替换为 green: %+v", rows)
	}

	sizeAssign, _ := repo.GetProductAssignment(testCtx, product.ID, size.ID)
	rows, _ = repo.ListProductAssignmentValues(testCtx, []int64{sizeAssign.ID})
	if len(rows) != 1 || rows[0].Slug != "xl" {
		t.Errorf("未提及的 size 应保持原状: %+v", rows)
	}
}

func TestGetOrCreateValueReusesExisting(t *testing.T) {
	db := setupTestDB(t)
	svc, repo := newAttrService(db)
	color := createAttribute(t, db, "Color", "color", false, true)
	pt := createProductType(t, db, "mug")
	p1 := createProduct(t, db, pt.ID, "mug-a")
	p2 := createProduct(t, db, pt.ID, "mug-b")

	pairs := []ResolvedAttribute{{Attribute: *color, RawValues: []string{"Red"}}}
	if err := svc.CommitProductAttributes(testCtx, repo, p1.ID, pairs); err != nil {
		t.Fatalf("落库失败: %v", err)
	}
	// 同一文本第二次提交不再新建取值
	if err := svc.CommitProductAttributes(testCtx, repo, p2.ID, pairs); err != nil {
		t.Fatalf("落库失败: %v", err)
	}

	var count int64
	db.Model(&model.AttributeValue{}).Where("attribute_id = ?", color.ID).Count(&count)
	if count != 1 {
		t.Errorf("相同文本应复用已有取值, 实际 %d 行", count)
	}
}

func TestBuildValueMapNormalization(t *testing.T) {
	color := model.Attribute{Name: "Color", Slug: "color"}
	pairs := []ResolvedAttribute{{Attribute: color, RawValues: []string{" Red ", "BLUE", "red", ""}}}
	vm := BuildValueMap(pairs)
	got := vm["color"]
	if len(got) != 2 || got[0] != "blue" || got[1] != "red" {
		t.Fatalf("快照应小写去重排序: %v", got)
	}
	if !ValueMapEquals(vm, MarshalValueMap(map[string][]string{"color": {"blue", "red"}})) {
		t.Error("归一化后的相同组合应判定相等")
	}
	if ValueMapEquals(vm, MarshalValueMap(map[string][]string{"color": {"red"}})) {
		t.Error("不同组合不应判定相等")
	}
}
