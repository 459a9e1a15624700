package service

import (
	"context"

	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

// SelectedAttribute 读取侧的分组结果：一个属性与它在归属对象上的取值
type SelectedAttribute struct {
	Attribute model.Attribute
	Values    []model.AttributeValue
}

// AttributeLoaderService 批量装载商品/变体的已赋值属性
//
// 固定三段批量查询（赋值关联 -> 取值 -> 属性定义），查询数与批量大小无关。
// 逐个归属对象各查一轮正是这个组件要消灭的反模式。
type AttributeLoaderService struct {
	AttrRepo repository.AttributeRepository
}

// NewAttributeLoaderService 工厂方法
func NewAttributeLoaderService(ar repository.AttributeRepository) *AttributeLoaderService {
	return &AttributeLoaderService{AttrRepo: ar}
}

// BatchLoadProductAttributes 批量装载商品的已赋值属性
//
// 返回切片与 ownerIDs 同序同长度（重复 ID 得到重复结果）。
// visibleOnly 表示请求方无目录管理权限，三段查询统一按前台可见过滤——
// 过滤口径不一致会让隐藏属性在联表时被悄悄丢掉一半。
// 商品维度下同一属性的多条赋值行会合并，取值按 ID 去重。
func (s *AttributeLoaderService) BatchLoadProductAttributes(ctx context.Context, ownerIDs []int64, visibleOnly bool) ([][]SelectedAttribute, error) {
	if len(ownerIDs) == 0 {
		return [][]SelectedAttribute{}, nil
	}

	// 第一段：所有归属商品的赋值关联
	assignments, err := s.AttrRepo.ListProductAssignments(ctx, ownerIDs, visibleOnly)
	if err != nil {
		return nil, err
	}
	rows := make([]assignmentRow, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, assignmentRow{ID: a.ID, OwnerID: a.ProductID, AttributeID: a.AttributeID})
	}
	return s.assemble(ctx, ownerIDs, rows, true, s.AttrRepo.ListProductAssignmentValues)
}

// BatchLoadVariantAttributes 批量装载变体的已赋值属性，变体维度不做同属性合并
func (s *AttributeLoaderService) BatchLoadVariantAttributes(ctx context.Context, ownerIDs []int64, visibleOnly bool) ([][]SelectedAttribute, error) {
	if len(ownerIDs) == 0 {
		return [][]SelectedAttribute{}, nil
	}

	assignments, err := s.AttrRepo.ListVariantAssignments(ctx, ownerIDs, visibleOnly)
	if err != nil {
		return nil, err
	}
	rows := make([]assignmentRow, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, assignmentRow{ID: a.ID, OwnerID: a.VariantID, AttributeID: a.AttributeID})
	}
	return s.assemble(ctx, ownerIDs, rows, false, s.AttrRepo.ListVariantAssignmentValues)
}

// assignmentRow 商品/变体赋值行的公共形态
type assignmentRow struct {
	ID          int64
	OwnerID     int64
	AttributeID int64
}

// assemble 执行第二、三段查询并按归属对象拼装分组
func (s *AttributeLoaderService) assemble(
	ctx context.Context,
	ownerIDs []int64,
	rows []assignmentRow,
	coalesce bool,
	loadValues func(ctx context.Context, assignmentIDs []int64) ([]repository.AssignedValueRow, error),
) ([][]SelectedAttribute, error) {
	result := make([][]SelectedAttribute, len(ownerIDs))
	if len(rows) == 0 {
		for i := range result {
			result[i] = []SelectedAttribute{}
		}
		return result, nil
	}

	assignmentIDs := make([]int64, 0, len(rows))
	attributeIDSet := make(map[int64]bool)
	attributeIDs := make([]int64, 0)
	byOwner := make(map[int64][]assignmentRow)
	for _, row := range rows {
		assignmentIDs = append(assignmentIDs, row.ID)
		if !attributeIDSet[row.AttributeID] {
			attributeIDSet[row.AttributeID] = true
			attributeIDs = append(attributeIDs, row.AttributeID)
		}
		byOwner[row.OwnerID] = append(byOwner[row.OwnerID], row)
	}

	// 第二段：赋值行引用的全部取值，按 (sort_order, id) 有序返回
	valueRows, err := loadValues(ctx, assignmentIDs)
	if err != nil {
		return nil, err
	}
	valuesByAssignment := make(map[int64][]model.AttributeValue)
	for _, vr := range valueRows {
		valuesByAssignment[vr.AssignmentID] = append(valuesByAssignment[vr.AssignmentID], vr.AttributeValue)
	}

	// 第三段：涉及的属性定义
	attrs, err := s.AttrRepo.ListByIDs(ctx, attributeIDs)
	if err != nil {
		return nil, err
	}
	attrsByID := make(map[int64]model.Attribute, len(attrs))
	for _, attr := range attrs {
		attrsByID[attr.ID] = attr
	}

	// 拼装：按赋值行 ID 顺序遍历（仓储层已按 id 排序返回）
	for i, ownerID := range ownerIDs {
		ownerRows := byOwner[ownerID]
		groups := make([]SelectedAttribute, 0, len(ownerRows))
		groupIndex := make(map[int64]int)
		for _, row := range ownerRows {
			attr, ok := attrsByID[row.AttributeID]
			if !ok {
				// 过滤口径下该属性不可见，赋值行随之丢弃
				continue
			}
			values := valuesByAssignment[row.ID]
			if coalesce {
				if idx, exists := groupIndex[attr.ID]; exists {
					groups[idx].Values = mergeValues(groups[idx].Values, values)
					continue
				}
				groupIndex[attr.ID] = len(groups)
			}
			groups = append(groups, SelectedAttribute{Attribute: attr, Values: values})
		}
		result[i] = groups
	}
	return result, nil
}

// mergeValues 取值并集，按 ID 去重，保持先到先得的顺序
func mergeValues(existing, incoming []model.AttributeValue) []model.AttributeValue {
	seen := make(map[int64]bool, len(existing))
	for _, v := range existing {
		seen[v.ID] = true
	}
	for _, v := range incoming {
		if !seen[v.ID] {
			seen[v.ID] = true
			existing = append(existing, v)
		}
	}
	return existing
}
