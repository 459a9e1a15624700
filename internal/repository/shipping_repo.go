package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront_v1/internal/model"
)

// ==================== 接口定义 ====================

// ShippingRepository 运费档案/分组/区域仓储接口
// 分组、区域、国家三层一起维护一致性，放在同一个仓储里便于跨层事务
type ShippingRepository interface {
	// 档案
	CreateProfile(ctx context.Context, profile *model.ShippingProfile) error
	GetProfileByID(ctx context.Context, id int64) (*model.ShippingProfile, error)
	GetDefaultProfile(ctx context.Context) (*model.ShippingProfile, error)
	UpdateProfile(ctx context.Context, profile *model.ShippingProfile) error
	DeleteProfile(ctx context.Context, id int64) error

	// 仓库分组
	CreateGroup(ctx context.Context, group *model.ShippingProfileWarehouseGroup) error
	GetGroupByID(ctx context.Context, id int64) (*model.ShippingProfileWarehouseGroup, error)
	ListSiblingGroups(ctx context.Context, profileID, excludeGroupID int64) ([]model.ShippingProfileWarehouseGroup, error)
	DeleteGroup(ctx context.Context, id int64) error

	// 分组成员
	AddGroupWarehouses(ctx context.Context, groupID int64, warehouseIDs []int64) error
	RemoveGroupWarehouses(ctx context.Context, groupID int64, warehouseIDs []int64) error
	CountGroupWarehouses(ctx context.Context, groupID int64) (int64, error)
	ListGroupWarehouseIDs(ctx context.Context, groupID int64) ([]int64, error)

	// 仓库
	CreateWarehouse(ctx context.Context, warehouse *model.Warehouse) error
	ListWarehousesByIDs(ctx context.Context, ids []int64) ([]model.Warehouse, error)

	// 区域
	CreateZone(ctx context.Context, zone *model.ShippingZone) error
	GetZoneByID(ctx context.Context, id int64) (*model.ShippingZone, error)
	UpdateZone(ctx context.Context, zone *model.ShippingZone) error
	DeleteZone(ctx context.Context, id int64) error

	// 国家
	ListSiblingZoneCountries(ctx context.Context, groupID, excludeZoneID int64) ([]model.ShippingCountry, error)
	GetZoneCountryByCode(ctx context.Context, zoneID int64, code string) (*model.ShippingCountry, error)
	SaveCountry(ctx context.Context, country *model.ShippingCountry) error
	ListZoneCountries(ctx context.Context, zoneID int64) ([]model.ShippingCountry, error)
	DeleteCountriesNotIn(ctx context.Context, zoneID int64, codes []string) error

	// 运费方式
	CreateMethod(ctx context.Context, method *model.ShippingMethod) error
	GetMethodByID(ctx context.Context, id int64) (*model.ShippingMethod, error)
	UpdateMethod(ctx context.Context, method *model.ShippingMethod) error
	DeleteMethod(ctx context.Context, id int64) error

	// 事务
	WithTx(tx *gorm.DB) ShippingRepository
	Transaction(ctx context.Context, fn func(txRepo ShippingRepository) error) error
}

// ==================== 仓储实现 ====================

type shippingRepo struct {
	db *gorm.DB
}

// NewShippingRepository 创建运费仓储
func NewShippingRepository(db *gorm.DB) ShippingRepository {
	return &shippingRepo{db: db}
}

// ==================== 档案 ====================

func (r *shippingRepo) CreateProfile(ctx context.Context, profile *model.ShippingProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *shippingRepo) GetProfileByID(ctx context.Context, id int64) (*model.ShippingProfile, error) {
	var profile model.ShippingProfile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *shippingRepo) GetDefaultProfile(ctx context.Context) (*model.ShippingProfile, error) {
	var profile model.ShippingProfile
	err := r.db.WithContext(ctx).
		Where("\"default\" = ?", true).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *shippingRepo) UpdateProfile(ctx context.Context, profile *model.ShippingProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *shippingRepo) DeleteProfile(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ShippingProfile{}, id).Error
}

// ==================== 仓库分组 ====================

func (r *shippingRepo) CreateGroup(ctx context.Context, group *model.ShippingProfileWarehouseGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *shippingRepo) GetGroupByID(ctx context.Context, id int64) (*model.ShippingProfileWarehouseGroup, error) {
	var group model.ShippingProfileWarehouseGroup
	err := r.db.WithContext(ctx).
		Preload("ShippingProfile").
		First(&group, id).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *shippingRepo) ListSiblingGroups(ctx context.Context, profileID, excludeGroupID int64) ([]model.ShippingProfileWarehouseGroup, error) {
	var groups []model.ShippingProfileWarehouseGroup
	err := r.db.WithContext(ctx).
		Where("shipping_profile_id = ? AND id <> ?", profileID, excludeGroupID).
		Find(&groups).Error
	return groups, err
}

func (r *shippingRepo) DeleteGroup(ctx context.Context, id int64) error {
	// 成员关系连带物理清掉，分组本身软删除
	if err := r.db.WithContext(ctx).Unscoped().
		Where("group_id = ?", id).
		Delete(&model.ShippingGroupWarehouse{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&model.ShippingProfileWarehouseGroup{}, id).Error
}

// ==================== 分组成员 ====================

func (r *shippingRepo) AddGroupWarehouses(ctx context.Context, groupID int64, warehouseIDs []int64) error {
	if len(warehouseIDs) == 0 {
		return nil
	}
	rows := make([]model.ShippingGroupWarehouse, 0, len(warehouseIDs))
	for _, warehouseID := range warehouseIDs {
		rows = append(rows, model.ShippingGroupWarehouse{GroupID: groupID, WarehouseID: warehouseID})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *shippingRepo) RemoveGroupWarehouses(ctx context.Context, groupID int64, warehouseIDs []int64) error {
	if len(warehouseIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Unscoped().
		Where("group_id = ? AND warehouse_id IN ?", groupID, warehouseIDs).
		Delete(&model.ShippingGroupWarehouse{}).Error
}

func (r *shippingRepo) CountGroupWarehouses(ctx context.Context, groupID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ShippingGroupWarehouse{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *shippingRepo) ListGroupWarehouseIDs(ctx context.Context, groupID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.ShippingGroupWarehouse{}).
		Where("group_id = ?", groupID).
		Order("warehouse_id").
		Pluck("warehouse_id", &ids).Error
	return ids, err
}

// ==================== 仓库 ====================

func (r *shippingRepo) CreateWarehouse(ctx context.Context, warehouse *model.Warehouse) error {
	return r.db.WithContext(ctx).Create(warehouse).Error
}

func (r *shippingRepo) ListWarehousesByIDs(ctx context.Context, ids []int64) ([]model.Warehouse, error) {
	var warehouses []model.Warehouse
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&warehouses).Error
	return warehouses, err
}

// ==================== 区域 ====================

func (r *shippingRepo) CreateZone(ctx context.Context, zone *model.ShippingZone) error {
	return r.db.WithContext(ctx).Create(zone).Error
}

func (r *shippingRepo) GetZoneByID(ctx context.Context, id int64) (*model.ShippingZone, error) {
	var zone model.ShippingZone
	err := r.db.WithContext(ctx).
		Preload("Countries").
		Preload("Methods").
		First(&zone, id).Error
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *shippingRepo) UpdateZone(ctx context.Context, zone *model.ShippingZone) error {
	return r.db.WithContext(ctx).Save(zone).Error
}

func (r *shippingRepo) DeleteZone(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ShippingZone{}, id).Error
}

// ==================== 国家 ====================

// ListSiblingZoneCountries 同分组内其他区域的全部国家，冲突检查用
func (r *shippingRepo) ListSiblingZoneCountries(ctx context.Context, groupID, excludeZoneID int64) ([]model.ShippingCountry, error) {
	var countries []model.ShippingCountry
	err := r.db.WithContext(ctx).Model(&model.ShippingCountry{}).
		Joins("JOIN shipping_zones z ON z.id = shipping_countries.zone_id").
		Where("z.group_id = ? AND z.id <> ? AND z.deleted_at IS NULL", groupID, excludeZoneID).
		Find(&countries).Error
	return countries, err
}

func (r *shippingRepo) GetZoneCountryByCode(ctx context.Context, zoneID int64, code string) (*model.ShippingCountry, error) {
	var country model.ShippingCountry
	err := r.db.WithContext(ctx).
		Where("zone_id = ? AND code = ?", zoneID, code).
		First(&country).Error
	if err != nil {
		return nil, err
	}
	return &country, nil
}

func (r *shippingRepo) SaveCountry(ctx context.Context, country *model.ShippingCountry) error {
	return r.db.WithContext(ctx).Save(country).Error
}

func (r *shippingRepo) ListZoneCountries(ctx context.Context, zoneID int64) ([]model.ShippingCountry, error) {
	var countries []model.ShippingCountry
	err := r.db.WithContext(ctx).
		Where("zone_id = ?", zoneID).
		Order("code").
		Find(&countries).Error
	return countries, err
}

// DeleteCountriesNotIn 全量替换语义的收尾：清掉不在本次输入里的国家
func (r *shippingRepo) DeleteCountriesNotIn(ctx context.Context, zoneID int64, codes []string) error {
	query := r.db.WithContext(ctx).Unscoped().Where("zone_id = ?", zoneID)
	if len(codes) > 0 {
		query = query.Where("code NOT IN ?", codes)
	}
	return query.Delete(&model.ShippingCountry{}).Error
}

// ==================== 运费方式 ====================

func (r *shippingRepo) CreateMethod(ctx context.Context, method *model.ShippingMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *shippingRepo) GetMethodByID(ctx context.Context, id int64) (*model.ShippingMethod, error) {
	var method model.ShippingMethod
	if err := r.db.WithContext(ctx).First(&method, id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *shippingRepo) UpdateMethod(ctx context.Context, method *model.ShippingMethod) error {
	return r.db.WithContext(ctx).Save(method).Error
}

func (r *shippingRepo) DeleteMethod(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.ShippingMethod{}, id).Error
}

func (r *shippingRepo) WithTx(tx *gorm.DB) ShippingRepository {
	return &shippingRepo{db: tx}
}

func (r *shippingRepo) Transaction(ctx context.Context, fn func(txRepo ShippingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
