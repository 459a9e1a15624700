package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/apperr"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
)

type CollectionService struct {
	CollRepo    repository.CollectionRepository
	ProductRepo repository.ProductRepository
}

// NewCollectionService 工厂方法
func NewCollectionService(cr repository.CollectionRepository, pr repository.ProductRepository) *CollectionService {
	return &CollectionService{CollRepo: cr, ProductRepo: pr}
}

// ==================== 集合维护 ====================

// CreateCollection 创建集合，可同时挂入首批商品
func (s *CollectionService) CreateCollection(ctx context.Context, req *dto.CollectionCreateReq) (*model.Collection, error) {
	collSlug := req.Slug
	if collSlug == "" {
		collSlug = slug.Make(req.Name)
	}
	collection := &model.Collection{
		Name:        req.Name,
		Slug:        collSlug,
		Description: req.Description,
		IsPublished: req.IsPublished,
	}
	if err := s.CollRepo.Create(ctx, collection); errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.NewField(apperr.CodeUnique, "slug", fmt.Sprintf("集合 slug 已存在: %s", collSlug))
	} else if err != nil {
		return nil, fmt.Errorf("创建集合失败: %w", err)
	}
	if len(req.ProductIDs) > 0 {
		if err := s.AddProducts(ctx, collection.ID, req.ProductIDs); err != nil {
			return nil, err
		}
	}
	return collection, nil
}

// AddProducts 把商品追加到集合末尾，已在集合内的跳过
func (s *CollectionService) AddProducts(ctx context.Context, collectionID int64, productIDs []int64) error {
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return err
	}
	if err := checkDuplicateIDs(productIDs, "商品"); err != nil {
		return err
	}

	// 引用先全量解析，有不存在的整体失败
	products, err := s.ProductRepo.ListByIDs(ctx, productIDs)
	if err != nil {
		return err
	}
	found := make(map[int64]bool, len(products))
	for _, p := range products {
		found[p.ID] = true
	}
	var missing []string
	for _, id := range productIDs {
		if !found[id] {
			missing = append(missing, fmt.Sprintf("%d", id))
		}
	}
	if len(missing) > 0 {
		return apperr.New(apperr.CodeNotFound,
			fmt.Sprintf("以下商品不存在: %s", strings.Join(missing, ", "))).
			WithParams(missing...)
	}

	return s.CollRepo.Transaction(ctx, func(repo repository.CollectionRepository) error {
		next, err := repo.MaxSortOrder(ctx, collectionID)
		if err != nil {
			return err
		}
		next++
		for _, productID := range productIDs {
			_, err := repo.GetJoin(ctx, collectionID, productID)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			join := &model.CollectionProduct{
				CollectionID: collectionID,
				ProductID:    productID,
				SortOrder:    next,
			}
			if err := repo.CreateJoin(ctx, join); err != nil {
				return err
			}
			next++
		}
		return nil
	})
}

// RemoveProducts 把商品移出集合
func (s *CollectionService) RemoveProducts(ctx context.Context, collectionID int64, productIDs []int64) error {
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return err
	}
	if len(productIDs) == 0 {
		return nil
	}
	return s.CollRepo.DeleteJoins(ctx, collectionID, productIDs)
}

// ==================== 重排 ====================

// ReorderProducts 按相对偏移重排集合内商品
//
// 每个 move 指定商品与相对偏移：+N 向后挪 N 位，-N 向前挪 N 位，
// 途中经过的商品各让一格，0 是空操作。偏移超出边界时钳到边界。
// 任何一个商品解析不到就整体失败，不动任何排序位；写回在一个事务里完成。
func (s *CollectionService) ReorderProducts(ctx context.Context, collectionID int64, moves []dto.MoveProductInput) error {
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return err
	}
	joins, err := s.CollRepo.ListJoins(ctx, collectionID)
	if err != nil {
		return err
	}

	// 1. 先把全部 move 解析成关联行，缺一个都不许动
	indexByProduct := make(map[int64]int, len(joins))
	for i, join := range joins {
		indexByProduct[join.ProductID] = i
	}
	var missing []string
	for _, move := range moves {
		if _, ok := indexByProduct[move.ProductID]; !ok {
			missing = append(missing, fmt.Sprintf("%d", move.ProductID))
		}
	}
	if len(missing) > 0 {
		return apperr.New(apperr.CodeNotFound,
			fmt.Sprintf("以下商品不在集合内: %s", strings.Join(missing, ", "))).
			WithParams(missing...)
	}

	// 2. 在内存序列上逐个施加偏移
	sequence := make([]model.CollectionProduct, len(joins))
	copy(sequence, joins)
	for _, move := range moves {
		if move.SortOrder == 0 {
			continue
		}
		from := -1
		for i, join := range sequence {
			if join.ProductID == move.ProductID {
				from = i
				break
			}
		}
		to := from + move.SortOrder
		if to < 0 {
			to = 0
		}
		if to > len(sequence)-1 {
			to = len(sequence) - 1
		}
		if to == from {
			continue
		}
		moved := sequence[from]
		sequence = append(sequence[:from], sequence[from+1:]...)
		sequence = append(sequence[:to], append([]model.CollectionProduct{moved}, sequence[to:]...)...)
	}

	// 3. 序列没变就一个字节都不写
	changed := false
	for i := range sequence {
		if sequence[i].ID != joins[i].ID {
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}

	// 4. 归一化写回：排序位直接取序列下标
	orders := make(map[int64]int)
	for i, join := range sequence {
		if join.SortOrder != i {
			orders[join.ID] = i
		}
	}
	return s.CollRepo.Transaction(ctx, func(repo repository.CollectionRepository) error {
		return repo.UpdateSortOrders(ctx, orders)
	})
}

// ListProducts 按排序位列出集合内商品
func (s *CollectionService) ListProducts(ctx context.Context, collectionID int64) ([]model.CollectionProduct, error) {
	if _, err := s.getCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	return s.CollRepo.ListJoins(ctx, collectionID)
}

func (s *CollectionService) getCollection(ctx context.Context, id int64) (*model.Collection, error) {
	collection, err := s.CollRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("集合不存在: %d", id))
	} else if err != nil {
		return nil, err
	}
	return collection, nil
}

// checkDuplicateIDs 输入列表里出现重复 ID 直接拒绝
func checkDuplicateIDs(ids []int64, label string) error {
	seen := make(map[int64]bool, len(ids))
	for i, id := range ids {
		if seen[id] {
			return apperr.New(apperr.CodeDuplicatedInputItem,
				fmt.Sprintf("%s %d 在列表中重复出现", label, id)).
				WithIndex(i).WithParams(fmt.Sprintf("%d", id))
		}
		seen[id] = true
	}
	return nil
}
