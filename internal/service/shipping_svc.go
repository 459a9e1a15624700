package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/apperr"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
	"storefront_v1/pkg/webhook"
)

type ShippingService struct {
	DB          *gorm.DB // 档案删除要跨商品/运费两个仓储开事务
	ShipRepo    repository.ShippingRepository
	ProductRepo repository.ProductRepository
	Webhook     *webhook.Dispatcher
}

// NewShippingService 工厂方法
func NewShippingService(db *gorm.DB, sr repository.ShippingRepository, pr repository.ProductRepository, wh *webhook.Dispatcher) *ShippingService {
	return &ShippingService{DB: db, ShipRepo: sr, ProductRepo: pr, Webhook: wh}
}

// ==================== 区域国家 ====================

// SaveZoneCountries 全量替换区域覆盖的国家
//
// 先对同分组的兄弟区域做冲突检查，任一冲突立即失败，不落任何写入：
// 同 code 且（省份有交集 或 省份列表完全相同）即冲突。
// 通过后逐条 get-or-create 并覆盖省份，最后清掉不在本次输入里的旧国家。
func (s *ShippingService) SaveZoneCountries(ctx context.Context, zoneID int64, inputs []dto.ShippingCountryInput) ([]model.ShippingCountry, error) {
	zone, err := s.ShipRepo.GetZoneByID(ctx, zoneID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("区域不存在: %d", zoneID))
	} else if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, apperr.NewField(apperr.CodeRequired, "countries", "区域必须至少覆盖一个国家")
	}

	// 本次输入内部不允许重复国家码
	seen := make(map[string]bool, len(inputs))
	normalized := make([]dto.ShippingCountryInput, 0, len(inputs))
	for i, in := range inputs {
		code := strings.ToUpper(strings.TrimSpace(in.Code))
		if seen[code] {
			return nil, apperr.NewField(apperr.CodeDuplicatedInputItem, "countries",
				fmt.Sprintf("国家码重复出现: %s", code)).WithIndex(i).WithParams(code)
		}
		seen[code] = true
		normalized = append(normalized, dto.ShippingCountryInput{
			Code:      code,
			Provinces: normalizeProvinces(in.Provinces),
		})
	}

	// 兄弟区域冲突检查，首个冲突即失败
	siblings, err := s.ShipRepo.ListSiblingZoneCountries(ctx, zone.GroupID, zone.ID)
	if err != nil {
		return nil, err
	}
	for i, in := range normalized {
		for _, sib := range siblings {
			if sib.Code != in.Code {
				continue
			}
			if provincesConflict(in.Provinces, normalizeProvinces(sib.Provinces)) {
				return nil, apperr.NewField(apperr.CodeDuplicatedCountryInGroup, "countries",
					fmt.Sprintf("国家 %s 的覆盖范围已被同分组区域 %d 占用", in.Code, sib.ZoneID)).
					WithIndex(i).WithParams(in.Code)
			}
		}
	}

	// 校验全部通过后才开始写
	var saved []model.ShippingCountry
	err = s.ShipRepo.Transaction(ctx, func(repo repository.ShippingRepository) error {
		codes := make([]string, 0, len(normalized))
		for _, in := range normalized {
			codes = append(codes, in.Code)
			country, err := repo.GetZoneCountryByCode(ctx, zone.ID, in.Code)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				country = &model.ShippingCountry{ZoneID: zone.ID, Code: in.Code}
			} else if err != nil {
				return err
			}
			country.Provinces = in.Provinces
			if err := repo.SaveCountry(ctx, country); err != nil {
				return err
			}
			saved = append(saved, *country)
		}
		// 全量替换收尾
		return repo.DeleteCountriesNotIn(ctx, zone.ID, codes)
	})
	if err != nil {
		return nil, err
	}

	if s.Webhook != nil {
		s.Webhook.Notify(webhook.EventZoneUpdated, map[string]interface{}{
			"zone_id":  zone.ID,
			"group_id": zone.GroupID,
		})
	}
	return saved, nil
}

// normalizeProvinces 去空白、转大写、去重、排序
func normalizeProvinces(provinces []string) []string {
	seen := make(map[string]bool, len(provinces))
	out := make([]string, 0, len(provinces))
	for _, p := range provinces {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// provincesConflict 省份有交集，或两份列表完全相同（含都为空），视为冲突
func provincesConflict(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		if set[p] {
			return true
		}
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ==================== 仓库分组 ====================

// ReassignResult 成员调整结果
type ReassignResult struct {
	GroupID      int64
	WarehouseIDs []int64
	Deleted      bool // 本次操作清空成员导致分组自删
}

// ReassignWarehouses 调整分组成员
//
// 同一仓库出现在加/减两个列表里直接拒绝，任何写入之前。
// 加入：先把仓库从同档案的兄弟分组里摘出来（单分组归属不变式），
// 兄弟分组被摘空就删掉它，然后再加入目标分组。
// 移除：从目标分组摘除后做空检，目标分组被摘空时连自己一起删
// （真实的级联自删，即便它正处在本次操作中间）。
func (s *ShippingService) ReassignWarehouses(ctx context.Context, groupID int64, addList, removeList []int64) (*ReassignResult, error) {
	// 1. 加/减列表交集检查，先于一切持久化
	inAdd := make(map[int64]bool, len(addList))
	for _, id := range addList {
		inAdd[id] = true
	}
	for _, id := range removeList {
		if inAdd[id] {
			return nil, apperr.New(apperr.CodeDuplicatedInputItem,
				fmt.Sprintf("仓库 %d 同时出现在加入与移除列表", id)).
				WithParams(fmt.Sprintf("%d", id))
		}
	}

	group, err := s.ShipRepo.GetGroupByID(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("仓库分组不存在: %d", groupID))
	} else if err != nil {
		return nil, err
	}

	result := &ReassignResult{GroupID: group.ID}
	err = s.ShipRepo.Transaction(ctx, func(repo repository.ShippingRepository) error {
		// 2. 加入前先清兄弟分组
		if len(addList) > 0 {
			siblings, err := repo.ListSiblingGroups(ctx, group.ShippingProfileID, group.ID)
			if err != nil {
				return err
			}
			for _, sibling := range siblings {
				if err := repo.RemoveGroupWarehouses(ctx, sibling.ID, addList); err != nil {
					return err
				}
				if _, err := s.deleteGroupIfEmpty(ctx, repo, sibling.ID); err != nil {
					return err
				}
			}
			if err := repo.AddGroupWarehouses(ctx, group.ID, addList); err != nil {
				return err
			}
		}

		// 3. 移除并做目标分组空检
		if len(removeList) > 0 {
			if err := repo.RemoveGroupWarehouses(ctx, group.ID, removeList); err != nil {
				return err
			}
			deleted, err := s.deleteGroupIfEmpty(ctx, repo, group.ID)
			if err != nil {
				return err
			}
			result.Deleted = deleted
		}

		if !result.Deleted {
			ids, err := repo.ListGroupWarehouseIDs(ctx, group.ID)
			if err != nil {
				return err
			}
			result.WarehouseIDs = ids
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// deleteGroupIfEmpty 结构性变更后的显式后置检查：零成员的分组立即删除
func (s *ShippingService) deleteGroupIfEmpty(ctx context.Context, repo repository.ShippingRepository, groupID int64) (bool, error) {
	count, err := repo.CountGroupWarehouses(ctx, groupID)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	return true, repo.DeleteGroup(ctx, groupID)
}

// SaveGroup 创建或更新分组并调整成员
func (s *ShippingService) SaveGroup(ctx context.Context, groupID int64, req *dto.GroupSaveReq) (*ReassignResult, error) {
	if groupID == 0 {
		if _, err := s.ShipRepo.GetProfileByID(ctx, req.ShippingProfileID); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("运费档案不存在: %d", req.ShippingProfileID))
		} else if err != nil {
			return nil, err
		}
		group := &model.ShippingProfileWarehouseGroup{
			ShippingProfileID: req.ShippingProfileID,
			Name:              req.Name,
		}
		if err := s.ShipRepo.CreateGroup(ctx, group); err != nil {
			return nil, err
		}
		groupID = group.ID
	}
	return s.ReassignWarehouses(ctx, groupID, req.AddWarehouses, req.RemoveWarehouses)
}

// ==================== 运费档案 ====================

// CreateProfile 创建档案并纳入指定商品
func (s *ShippingService) CreateProfile(ctx context.Context, req *dto.ProfileSaveReq) (*model.ShippingProfile, error) {
	profile := &model.ShippingProfile{Name: req.Name}
	if err := s.ShipRepo.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	if len(req.AddProducts) > 0 {
		if err := s.ProductRepo.SetShippingProfile(ctx, req.AddProducts, profile.ID); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// UpdateProfileProducts 调整档案下的商品，移出的商品回落到默认档案
func (s *ShippingService) UpdateProfileProducts(ctx context.Context, profileID int64, req *dto.ProfileSaveReq) error {
	profile, err := s.ShipRepo.GetProfileByID(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("运费档案不存在: %d", profileID))
	} else if err != nil {
		return err
	}

	// 加/减交集检查与分组成员保持同一规则
	inAdd := make(map[int64]bool, len(req.AddProducts))
	for _, id := range req.AddProducts {
		inAdd[id] = true
	}
	for _, id := range req.RemoveProducts {
		if inAdd[id] {
			return apperr.New(apperr.CodeDuplicatedInputItem,
				fmt.Sprintf("商品 %d 同时出现在加入与移除列表", id)).
				WithParams(fmt.Sprintf("%d", id))
		}
	}

	if req.Name != "" && req.Name != profile.Name {
		profile.Name = req.Name
		if err := s.ShipRepo.UpdateProfile(ctx, profile); err != nil {
			return err
		}
	}

	if len(req.AddProducts) > 0 {
		if err := s.ProductRepo.SetShippingProfile(ctx, req.AddProducts, profile.ID); err != nil {
			return err
		}
	}
	if len(req.RemoveProducts) > 0 {
		fallback, err := s.ShipRepo.GetDefaultProfile(ctx)
		if err != nil {
			return err
		}
		if err := s.ProductRepo.SetShippingProfile(ctx, req.RemoveProducts, fallback.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteProfile 删除档案，默认档案受保护；商品回落到默认档案
func (s *ShippingService) DeleteProfile(ctx context.Context, profileID int64) error {
	profile, err := s.ShipRepo.GetProfileByID(ctx, profileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("运费档案不存在: %d", profileID))
	} else if err != nil {
		return err
	}
	if profile.Default {
		return apperr.New(apperr.CodeDefaultShippingProfile, "默认运费档案不可删除")
	}
	fallback, err := s.ShipRepo.GetDefaultProfile(ctx)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ProductRepo.WithTx(tx).ReassignShippingProfile(ctx, profile.ID, fallback.ID); err != nil {
			return err
		}
		return s.ShipRepo.WithTx(tx).DeleteProfile(ctx, profile.ID)
	})
}

// ==================== 运费方式 ====================

// SaveMethod 创建或更新运费方式
// 价格与分段边界先校验再落库：负值 INVALID，上界小于下界 MAX_LESS_THAN_MIN；
// 与类型无关的另一侧分段字段会被清空
func (s *ShippingService) SaveMethod(ctx context.Context, methodID int64, req *dto.MethodSaveReq) (*model.ShippingMethod, error) {
	if err := validateMethodInput(req); err != nil {
		return nil, err
	}

	var method *model.ShippingMethod
	if methodID == 0 {
		if _, err := s.ShipRepo.GetZoneByID(ctx, req.ZoneID); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("区域不存在: %d", req.ZoneID))
		} else if err != nil {
			return nil, err
		}
		method = &model.ShippingMethod{ZoneID: req.ZoneID}
	} else {
		existing, err := s.ShipRepo.GetMethodByID(ctx, methodID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("运费方式不存在: %d", methodID))
		} else if err != nil {
			return nil, err
		}
		method = existing
	}

	method.Name = req.Name
	if req.Type != "" {
		method.Type = req.Type
	} else if method.Type == "" {
		method.Type = model.ShippingMethodGeneral
	}
	if req.Price != nil {
		method.PriceAmount = toCents(*req.Price)
	}

	// 分段边界只保留与类型匹配的一侧
	switch method.Type {
	case model.ShippingMethodPrice:
		method.MinOrderPriceAmount = centsPtr(req.MinOrderPrice)
		method.MaxOrderPriceAmount = centsPtr(req.MaxOrderPrice)
		method.MinOrderWeight = nil
		method.MaxOrderWeight = nil
	case model.ShippingMethodWeight:
		method.MinOrderWeight = req.MinOrderWeight
		method.MaxOrderWeight = req.MaxOrderWeight
		method.MinOrderPriceAmount = nil
		method.MaxOrderPriceAmount = nil
	default:
		method.MinOrderPriceAmount = nil
		method.MaxOrderPriceAmount = nil
		method.MinOrderWeight = nil
		method.MaxOrderWeight = nil
	}

	var err error
	if methodID == 0 {
		err = s.ShipRepo.CreateMethod(ctx, method)
	} else {
		err = s.ShipRepo.UpdateMethod(ctx, method)
	}
	if err != nil {
		return nil, err
	}
	return method, nil
}

func validateMethodInput(req *dto.MethodSaveReq) error {
	if req.Price != nil && *req.Price < 0 {
		return apperr.NewField(apperr.CodeInvalid, "price", "运费价格不能为负数")
	}
	for field, v := range map[string]*float64{
		"min_order_price":  req.MinOrderPrice,
		"max_order_price":  req.MaxOrderPrice,
		"min_order_weight": req.MinOrderWeight,
		"max_order_weight": req.MaxOrderWeight,
	} {
		if v != nil && *v < 0 {
			return apperr.NewField(apperr.CodeInvalid, field, "分段边界不能为负数")
		}
	}
	if req.MinOrderPrice != nil && req.MaxOrderPrice != nil && *req.MaxOrderPrice < *req.MinOrderPrice {
		return apperr.NewField(apperr.CodeMaxLessThanMin, "max_order_price", "价格上界不能小于下界")
	}
	if req.MinOrderWeight != nil && req.MaxOrderWeight != nil && *req.MaxOrderWeight < *req.MinOrderWeight {
		return apperr.NewField(apperr.CodeMaxLessThanMin, "max_order_weight", "重量上界不能小于下界")
	}
	return nil
}

// toCents 金额按分存储
func toCents(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

func centsPtr(amount *float64) *int64 {
	if amount == nil {
		return nil
	}
	cents := toCents(*amount)
	return &cents
}
