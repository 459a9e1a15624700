package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/apperr"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

// ==================== 业务常量 ====================

// 赋值模式：商品维度要求 value_required 属性全覆盖，变体维度不做覆盖校验
const (
	AttributeModeProduct = "product"
	AttributeModeVariant = "variant"
)

// ResolvedAttribute 解析完成的 (属性定义, 原始取值) 对
// RawValues 保持调用方给出的顺序，后续落库时作为取值排序依据
type ResolvedAttribute struct {
	Attribute model.Attribute
	RawValues []string
}

type AttributeService struct {
	AttrRepo repository.AttributeRepository
}

// NewAttributeService 工厂方法
func NewAttributeService(ar repository.AttributeRepository) *AttributeService {
	return &AttributeService{AttrRepo: ar}
}

// ==================== 定义维护 ====================

// CreateAttribute 创建属性定义，slug 缺省时由名称生成
func (s *AttributeService) CreateAttribute(ctx context.Context, req *dto.AttributeCreateReq) (*model.Attribute, error) {
	attrSlug := req.Slug
	if attrSlug == "" {
		attrSlug = slug.Make(req.Name)
	}
	visible := true
	if req.VisibleInStorefront != nil {
		visible = *req.VisibleInStorefront
	}
	attr := &model.Attribute{
		Name:                req.Name,
		Slug:                attrSlug,
		ValueRequired:       req.ValueRequired,
		VisibleInStorefront: visible,
	}
	if err := s.AttrRepo.Create(ctx, attr); errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.NewField(apperr.CodeUnique, "slug", fmt.Sprintf("属性 slug 已存在: %s", attrSlug))
	} else if err != nil {
		return nil, fmt.Errorf("创建属性失败: %w", err)
	}
	return attr, nil
}

// ListAttributes 列出属性定义，visibleOnly 时只返回前台可见的
func (s *AttributeService) ListAttributes(ctx context.Context, visibleOnly bool) ([]model.Attribute, error) {
	return s.AttrRepo.List(ctx, visibleOnly)
}

// BindTypeAttributes 把属性绑定到商品类型的商品/变体维度
func (s *AttributeService) BindTypeAttributes(ctx context.Context, productTypeID int64, productAttrIDs, variantAttrIDs []int64) error {
	if err := s.AttrRepo.BindProductAttributes(ctx, productTypeID, productAttrIDs); err != nil {
		return err
	}
	return s.AttrRepo.BindVariantAttributes(ctx, productTypeID, variantAttrIDs)
}

// ==================== 解析 ====================

// ResolveAttributes 把用户提交的属性引用解析为 (属性定义, 原始取值) 对
//
// candidates 是归属商品类型下的适用属性集合，引用只能落在这个集合内。
// 流程：
//  1. 按 ID / slug 分桶，两者都没给直接失败
//  2. 一次批量查询解析全部引用，任何一个没解析到就整体失败并罗列出来
//  3. 按查询结果顺序组装结果对
//  4. product 模式校验 value_required 属性全覆盖
func (s *AttributeService) ResolveAttributes(ctx context.Context, inputs []dto.AttributeValueInput, candidates []model.Attribute, mode string) ([]ResolvedAttribute, error) {
	if len(inputs) == 0 {
		if mode == AttributeModeProduct {
			if err := s.checkRequiredCoverage(candidates, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	// 1. 分桶
	valuesByID := make(map[int64][]string)
	valuesBySlug := make(map[string][]string)
	for _, in := range inputs {
		if in.ID == 0 && in.Slug == "" {
			return nil, apperr.New(apperr.CodeRequired, "必须提供属性 ID 或 slug")
		}
		if in.ID != 0 {
			valuesByID[in.ID] = in.Values
		} else {
			valuesBySlug[in.Slug] = in.Values
		}
	}

	ids := make([]int64, 0, len(valuesByID))
	for id := range valuesByID {
		ids = append(ids, id)
	}
	slugs := make([]string, 0, len(valuesBySlug))
	for sl := range valuesBySlug {
		slugs = append(slugs, sl)
	}

	// 2. 批量解析，限定在候选集内
	candidateIDs := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		candidateIDs = append(candidateIDs, c.ID)
	}
	resolved, err := s.AttrRepo.ListByIDsOrSlugs(ctx, candidateIDs, ids, slugs)
	if err != nil {
		return nil, err
	}

	resolvedByID := make(map[int64]bool, len(resolved))
	resolvedBySlug := make(map[string]bool, len(resolved))
	for _, attr := range resolved {
		resolvedByID[attr.ID] = true
		resolvedBySlug[attr.Slug] = true
	}

	// 任何未解析的引用都要报出来，而不是只报第一个
	var missing []string
	for _, id := range ids {
		if !resolvedByID[id] {
			missing = append(missing, fmt.Sprintf("id=%d", id))
		}
	}
	for _, sl := range slugs {
		if !resolvedBySlug[sl] {
			missing = append(missing, fmt.Sprintf("slug=%s", sl))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperr.New(apperr.CodeNotFound,
			fmt.Sprintf("以下属性引用无法解析: %s", strings.Join(missing, ", "))).
			WithParams(missing...)
	}

	// 3. 按查询结果顺序组装（不是输入顺序）
	pairs := make([]ResolvedAttribute, 0, len(resolved))
	for _, attr := range resolved {
		values, ok := valuesByID[attr.ID]
		if !ok {
			values = valuesBySlug[attr.Slug]
		}
		if attr.ValueRequired && len(nonBlank(values)) == 0 {
			return nil, apperr.NewField(apperr.CodeRequired, attr.Slug,
				fmt.Sprintf("属性 %s 要求至少提供一个取值", attr.Slug))
		}
		pairs = append(pairs, ResolvedAttribute{Attribute: attr, RawValues: values})
	}

	// 4. product 模式的必填全覆盖校验
	if mode == AttributeModeProduct {
		if err := s.checkRequiredCoverage(candidates, pairs); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}

// checkRequiredCoverage 候选集中所有 value_required 属性必须出现在解析结果里
// 整组报一次，不逐属性报
func (s *AttributeService) checkRequiredCoverage(candidates []model.Attribute, pairs []ResolvedAttribute) error {
	provided := make(map[int64]bool, len(pairs))
	for _, p := range pairs {
		provided[p.Attribute.ID] = true
	}
	var missing []string
	for _, c := range candidates {
		if c.ValueRequired && !provided[c.ID] {
			missing = append(missing, c.Slug)
		}
	}
	if len(missing) > 0 {
		return apperr.New(apperr.CodeRequired,
			fmt.Sprintf("缺少必填属性: %s", strings.Join(missing, ", "))).
			WithParams(missing...)
	}
	return nil
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

// ==================== 落库 ====================

// CommitProductAttributes 把解析好的结果对写入商品的赋值关联
//
// 调用前提：商品已持久化且校验已通过，这里不再重复校验。
// 每个属性的取值集合整体替换；结果对里没出现的属性保持原样不动。
// 调用方必须用事务包住整个序列，repo 传事务内仓储。
func (s *AttributeService) CommitProductAttributes(ctx context.Context, repo repository.AttributeRepository, productID int64, pairs []ResolvedAttribute) error {
	for _, pair := range pairs {
		valueIDs, err := s.resolveValueIDs(ctx, repo, pair)
		if err != nil {
			return err
		}
		assignment, err := repo.GetProductAssignment(ctx, productID, pair.Attribute.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			assignment = &model.AssignedProductAttribute{ProductID: productID, AttributeID: pair.Attribute.ID}
			if err := repo.CreateProductAssignment(ctx, assignment); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if err := repo.ReplaceProductAssignmentValues(ctx, assignment.ID, valueIDs); err != nil {
			return err
		}
	}
	return nil
}

// CommitVariantAttributes 变体侧落库，语义同 CommitProductAttributes
func (s *AttributeService) CommitVariantAttributes(ctx context.Context, repo repository.AttributeRepository, variantID int64, pairs []ResolvedAttribute) error {
	for _, pair := range pairs {
		valueIDs, err := s.resolveValueIDs(ctx, repo, pair)
		if err != nil {
			return err
		}
		assignment, err := repo.GetVariantAssignment(ctx, variantID, pair.Attribute.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			assignment = &model.AssignedVariantAttribute{VariantID: variantID, AttributeID: pair.Attribute.ID}
			if err := repo.CreateVariantAssignment(ctx, assignment); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if err := repo.ReplaceVariantAssignmentValues(ctx, assignment.ID, valueIDs); err != nil {
			return err
		}
	}
	return nil
}

// resolveValueIDs 逐个取值 get-or-create，按输入顺序去重后返回取值 ID
func (s *AttributeService) resolveValueIDs(ctx context.Context, repo repository.AttributeRepository, pair ResolvedAttribute) ([]int64, error) {
	seen := make(map[int64]bool)
	valueIDs := make([]int64, 0, len(pair.RawValues))
	for _, raw := range pair.RawValues {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		value, err := s.getOrCreateValue(ctx, repo, pair.Attribute.ID, raw)
		if err != nil {
			return nil, err
		}
		if seen[value.ID] {
			continue
		}
		seen[value.ID] = true
		valueIDs = append(valueIDs, value.ID)
	}
	return valueIDs, nil
}

// getOrCreateValue 按 (attribute, slug化文本) 定位取值，不存在则创建
// 并发抢建同一个 slug 时插入会被唯一索引挡掉，此时回头再查一次
func (s *AttributeService) getOrCreateValue(ctx context.Context, repo repository.AttributeRepository, attributeID int64, raw string) (*model.AttributeValue, error) {
	valueSlug := slug.Make(raw)
	existing, err := repo.GetValueBySlug(ctx, attributeID, valueSlug)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sortOrder, err := repo.NextValueSortOrder(ctx, attributeID)
	if err != nil {
		return nil, err
	}
	value := &model.AttributeValue{
		AttributeID: attributeID,
		Name:        raw,
		Slug:        valueSlug,
		SortOrder:   sortOrder,
	}
	created, err := repo.InsertValueIgnoreConflict(ctx, value)
	if err != nil {
		return nil, err
	}
	if created {
		return value, nil
	}
	// 被并发方抢先创建了
	return repo.GetValueBySlug(ctx, attributeID, valueSlug)
}

// ==================== 变体取值组合 ====================

// BuildValueMap 生成变体的赋值快照：属性 slug -> 小写取值列表（已排序）
// 用于同商品下变体组合的查重比对与排错展示
func BuildValueMap(pairs []ResolvedAttribute) map[string][]string {
	valueMap := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		values := make([]string, 0, len(pair.RawValues))
		seen := make(map[string]bool)
		for _, raw := range pair.RawValues {
			v := strings.ToLower(strings.TrimSpace(raw))
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			values = append(values, v)
		}
		sort.Strings(values)
		valueMap[pair.Attribute.Slug] = values
	}
	return valueMap
}

// MarshalValueMap 序列化快照，写入变体的 value_map 字段
func MarshalValueMap(valueMap map[string][]string) []byte {
	data, _ := json.Marshal(valueMap)
	return data
}

// ValueMapEquals 比较两份快照是否为同一组合（大小写不敏感在构建时已归一）
func ValueMapEquals(a map[string][]string, rawB []byte) bool {
	if len(rawB) == 0 {
		return len(a) == 0
	}
	var b map[string][]string
	if err := json.Unmarshal(rawB, &b); err != nil {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}

// GenerateVariantName 由解析结果对拼出变体展示名，如 "Red / XL"
func GenerateVariantName(pairs []ResolvedAttribute) string {
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		for _, raw := range pair.RawValues {
			if strings.TrimSpace(raw) != "" {
				parts = append(parts, strings.TrimSpace(raw))
			}
		}
	}
	return strings.Join(parts, " / ")
}
