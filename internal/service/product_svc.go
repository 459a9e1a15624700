package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"storefront_v1/internal/api/dto"
	"storefront_v1/internal/apperr"
	"storefront_v1/internal/model"
	"storefront_v1/internal/repository"
	"storefront_v1/pkg/webhook"
)

type ProductService struct {
	DB          *gorm.DB
	ProductRepo repository.ProductRepository
	AttrRepo    repository.AttributeRepository
	CollRepo    repository.CollectionRepository
	AttrSvc     *AttributeService
	Webhook     *webhook.Dispatcher
}

// NewProductService 工厂方法
// DB 用于跨仓储事务：商品、赋值关联、集合关联在同一个事务里落库
func NewProductService(
	db *gorm.DB,
	pr repository.ProductRepository,
	ar repository.AttributeRepository,
	cr repository.CollectionRepository,
	as *AttributeService,
	wh *webhook.Dispatcher,
) *ProductService {
	return &ProductService{DB: db, ProductRepo: pr, AttrRepo: ar, CollRepo: cr, AttrSvc: as, Webhook: wh}
}

// ==================== 商品类型 ====================

// CreateProductType 创建商品类型并绑定适用属性
func (s *ProductService) CreateProductType(ctx context.Context, req *dto.ProductTypeCreateReq) (*model.ProductType, error) {
	typeSlug := req.Slug
	if typeSlug == "" {
		typeSlug = slug.Make(req.Name)
	}
	t := &model.ProductType{Name: req.Name, Slug: typeSlug, HasVariants: req.HasVariants}
	if err := s.ProductRepo.CreateType(ctx, t); errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.NewField(apperr.CodeUnique, "slug", fmt.Sprintf("商品类型 slug 已存在: %s", typeSlug))
	} else if err != nil {
		return nil, fmt.Errorf("创建商品类型失败: %w", err)
	}
	if err := s.AttrRepo.BindProductAttributes(ctx, t.ID, req.ProductAttributeIDs); err != nil {
		return nil, err
	}
	if err := s.AttrRepo.BindVariantAttributes(ctx, t.ID, req.VariantAttributeIDs); err != nil {
		return nil, err
	}
	return t, nil
}

// ==================== 商品创建 ====================

// CreateProduct 创建商品
//
// 流程：
//  1. 解析商品维度属性（必填覆盖校验在解析里完成）
//  2. 逐个变体预校验，错误按下标累积后整体失败，而不是碰到第一个就中断
//  3. 全部校验通过后在一个事务里落库：商品 -> 赋值 -> 变体 -> 库存
//
// 没有变体输入时商品处于 variantless 状态，持有一个占位基础变体。
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductReq) (*model.Product, error) {
	productType, err := s.ProductRepo.GetTypeByID(ctx, req.ProductTypeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("商品类型不存在: %d", req.ProductTypeID))
	} else if err != nil {
		return nil, err
	}

	// 1. 商品维度属性解析
	productCandidates, err := s.AttrRepo.ListProductAttributesForType(ctx, productType.ID, false)
	if err != nil {
		return nil, err
	}
	productPairs, err := s.AttrSvc.ResolveAttributes(ctx, req.Attributes, productCandidates, AttributeModeProduct)
	if err != nil {
		return nil, err
	}

	// 2. 变体批量预校验
	variantCandidates, err := s.AttrRepo.ListVariantAttributesForType(ctx, productType.ID, false)
	if err != nil {
		return nil, err
	}
	prepared, err := s.prepareVariants(ctx, req.Variants, variantCandidates, nil)
	if err != nil {
		return nil, err
	}

	productSlug := req.Slug
	if productSlug == "" {
		productSlug = slug.Make(req.Name)
	}
	product := &model.Product{
		ProductTypeID: productType.ID,
		Name:          req.Name,
		Slug:          productSlug,
		Description:   req.Description,
		IsPublished:   req.IsPublished,
		Tags:          req.Tags,
		VariantState:  model.ProductVariantless,
	}
	if len(prepared) > 0 {
		product.VariantState = model.ProductVariantful
	}

	// 3. 入库
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prodTx := s.ProductRepo.WithTx(tx)
		attrTx := s.AttrRepo.WithTx(tx)

		if err := prodTx.Create(ctx, product); errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.NewField(apperr.CodeUnique, "slug", fmt.Sprintf("商品 slug 已存在: %s", productSlug))
		} else if err != nil {
			return fmt.Errorf("创建商品失败: %w", err)
		}
		if err := s.AttrSvc.CommitProductAttributes(ctx, attrTx, product.ID, productPairs); err != nil {
			return err
		}

		if len(prepared) == 0 {
			// variantless：建占位基础变体
			base := &model.ProductVariant{
				ProductID: product.ID,
				SKU:       productSlug,
				Name:      product.Name,
				IsBase:    true,
			}
			if err := prodTx.CreateVariant(ctx, base); err != nil {
				return err
			}
			product.BaseVariantID = &base.ID
			if err := prodTx.UpdateFields(ctx, product.ID, map[string]interface{}{"base_variant_id": base.ID}); err != nil {
				return err
			}
			return nil
		}

		for _, pv := range prepared {
			pv.Variant.ProductID = product.ID
			if err := prodTx.CreateVariant(ctx, pv.Variant); err != nil {
				return err
			}
			if err := s.AttrSvc.CommitVariantAttributes(ctx, attrTx, pv.Variant.ID, pv.Pairs); err != nil {
				return err
			}
			if err := s.upsertVariantStocks(ctx, prodTx, pv.Variant.ID, pv.Stocks); err != nil {
				return err
			}
		}
		return s.recalcMinimalPrice(ctx, prodTx, product)
	})
	if err != nil {
		return nil, err
	}

	// 归属集合在主事务之外追加，失败不回滚商品本身
	if len(req.CollectionIDs) > 0 {
		for _, collectionID := range req.CollectionIDs {
			if err := s.attachToCollection(ctx, collectionID, product.ID); err != nil {
				return nil, err
			}
		}
	}

	if s.Webhook != nil {
		s.Webhook.Notify(webhook.EventProductCreated, map[string]interface{}{
			"product_id": product.ID,
			"slug":       product.Slug,
		})
	}
	return s.ProductRepo.GetByID(ctx, product.ID)
}

// ==================== 变体 ====================

// preparedVariant 预校验通过、待落库的变体
type preparedVariant struct {
	Variant  *model.ProductVariant
	Pairs    []ResolvedAttribute
	ValueMap map[string][]string
	Stocks   []model.Stock
}

// prepareVariants 批量预校验变体输入，错误按下标累积
// siblings 为已存在的同商品变体，用于组合查重与 SKU 查重
func (s *ProductService) prepareVariants(ctx context.Context, inputs []dto.VariantInput, candidates []model.Attribute, siblings []model.ProductVariant) ([]*preparedVariant, error) {
	errList := &apperr.List{}
	prepared := make([]*preparedVariant, 0, len(inputs))
	seenSKU := make(map[string]int)
	batchMaps := make([]map[string][]string, 0, len(inputs))

	for i, in := range inputs {
		// 价格/成本/重量非负
		if in.Price != nil && *in.Price < 0 {
			errList.Append(apperr.NewField(apperr.CodeInvalid,
				fmt.Sprintf("variants[%d].price", i), "变体价格不能为负数").WithIndex(i))
		}
		if in.CostPrice != nil && *in.CostPrice < 0 {
			errList.Append(apperr.NewField(apperr.CodeInvalid,
				fmt.Sprintf("variants[%d].cost_price", i), "变体成本不能为负数").WithIndex(i))
		}
		if in.Weight != nil && *in.Weight < 0 {
			errList.Append(apperr.NewField(apperr.CodeInvalid,
				fmt.Sprintf("variants[%d].weight", i), "变体重量不能为负数").WithIndex(i))
		}

		// SKU：批内查重 + 库内查重
		if in.SKU != "" {
			if prev, dup := seenSKU[in.SKU]; dup {
				errList.Append(apperr.NewField(apperr.CodeUnique,
					fmt.Sprintf("variants[%d].sku", i),
					fmt.Sprintf("SKU %s 与第 %d 个变体重复", in.SKU, prev)).WithIndex(i))
			} else {
				seenSKU[in.SKU] = i
				taken, err := s.ProductRepo.SKUTakenByOther(ctx, in.SKU, in.ID)
				if err != nil {
					return nil, err
				}
				if taken {
					errList.Append(apperr.NewField(apperr.CodeAlreadyExists,
						fmt.Sprintf("variants[%d].sku", i),
						fmt.Sprintf("SKU %s 已被其他变体占用", in.SKU)).WithIndex(i))
				}
			}
		}

		// 库存：仓库查重 + 数量非负
		stocks, stockErrs := validateStocks(in.Stocks, i)
		errList.Append(stockErrs...)

		// 变体维度属性解析，真实变体至少要有一个属性
		if len(in.Attributes) == 0 {
			errList.Append(apperr.NewField(apperr.CodeRequired,
				fmt.Sprintf("variants[%d].attributes", i), "变体必须至少指定一个属性").WithIndex(i))
			batchMaps = append(batchMaps, nil)
			continue
		}
		pairs, err := s.AttrSvc.ResolveAttributes(ctx, in.Attributes, candidates, AttributeModeVariant)
		if err != nil {
			if v, ok := apperr.AsValidation(err); ok {
				errList.Append(v.WithIndex(i))
				batchMaps = append(batchMaps, nil)
				continue
			}
			return nil, err
		}

		// 组合查重：同商品下不允许两个变体的取值组合完全一致
		valueMap := BuildValueMap(pairs)
		for _, sibling := range siblings {
			if sibling.IsBase || sibling.ID == in.ID {
				continue
			}
			if ValueMapEquals(valueMap, sibling.ValueMap) {
				errList.Append(apperr.NewField(apperr.CodeAlreadyExists,
					fmt.Sprintf("variants[%d].attributes", i),
					fmt.Sprintf("取值组合与变体 %d 重复", sibling.ID)).WithIndex(i))
			}
		}
		for j, prevMap := range batchMaps {
			if prevMap == nil {
				continue
			}
			if ValueMapEquals(valueMap, MarshalValueMap(prevMap)) {
				errList.Append(apperr.NewField(apperr.CodeAlreadyExists,
					fmt.Sprintf("variants[%d].attributes", i),
					fmt.Sprintf("取值组合与第 %d 个变体重复", j)).WithIndex(i))
			}
		}
		batchMaps = append(batchMaps, valueMap)

		variant := &model.ProductVariant{
			SKU:      in.SKU,
			Name:     GenerateVariantName(pairs),
			ValueMap: MarshalValueMap(valueMap),
		}
		variant.ID = in.ID
		if in.Price != nil {
			variant.PriceAmount = toCents(*in.Price)
		}
		if in.CostPrice != nil {
			variant.CostPriceAmount = toCents(*in.CostPrice)
		}
		if in.Weight != nil {
			variant.Weight = *in.Weight
		}
		prepared = append(prepared, &preparedVariant{
			Variant:  variant,
			Pairs:    pairs,
			ValueMap: valueMap,
			Stocks:   stocks,
		})
	}

	if err := errList.AsError(); err != nil {
		return nil, err
	}
	return prepared, nil
}

// validateStocks 库存输入校验：同一仓库出现两次或数量为负都按下标报错
func validateStocks(inputs []dto.StockInput, variantIndex int) ([]model.Stock, []*apperr.ValidationError) {
	var errs []*apperr.ValidationError
	seen := make(map[int64]bool, len(inputs))
	stocks := make([]model.Stock, 0, len(inputs))
	for j, in := range inputs {
		if seen[in.WarehouseID] {
			errs = append(errs, apperr.NewField(apperr.CodeDuplicatedInputItem,
				fmt.Sprintf("variants[%d].stocks[%d].warehouse_id", variantIndex, j),
				fmt.Sprintf("仓库 %d 在库存列表中重复出现", in.WarehouseID)).WithIndex(variantIndex))
			continue
		}
		seen[in.WarehouseID] = true
		if in.Quantity < 0 {
			errs = append(errs, apperr.NewField(apperr.CodeInvalid,
				fmt.Sprintf("variants[%d].stocks[%d].quantity", variantIndex, j),
				"库存数量不能为负数").WithIndex(variantIndex))
			continue
		}
		stocks = append(stocks, model.Stock{WarehouseID: in.WarehouseID, Quantity: in.Quantity})
	}
	return stocks, errs
}

// AddVariant 给已有商品追加一个真实变体
//
// variantless -> variantful 状态转移在这里发生：
// 首个真实变体创建时，占位基础变体被物理删除，这是状态转移的固定效果。
func (s *ProductService) AddVariant(ctx context.Context, productID int64, input *dto.VariantInput) (*model.ProductVariant, error) {
	product, err := s.ProductRepo.GetByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("商品不存在: %d", productID))
	} else if err != nil {
		return nil, err
	}

	candidates, err := s.AttrRepo.ListVariantAttributesForType(ctx, product.ProductTypeID, false)
	if err != nil {
		return nil, err
	}
	siblings, err := s.ProductRepo.ListVariantsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	prepared, err := s.prepareVariants(ctx, []dto.VariantInput{*input}, candidates, siblings)
	if err != nil {
		return nil, err
	}
	pv := prepared[0]

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prodTx := s.ProductRepo.WithTx(tx)
		attrTx := s.AttrRepo.WithTx(tx)

		// 状态转移：删占位变体、清 base 指针、置为 variantful
		if product.VariantState == model.ProductVariantless {
			if product.BaseVariantID != nil {
				if err := prodTx.HardDeleteVariant(ctx, *product.BaseVariantID); err != nil {
					return err
				}
			}
			if err := prodTx.UpdateFields(ctx, product.ID, map[string]interface{}{
				"variant_state":   model.ProductVariantful,
				"base_variant_id": nil,
			}); err != nil {
				return err
			}
			product.VariantState = model.ProductVariantful
			product.BaseVariantID = nil
		}

		pv.Variant.ProductID = product.ID
		if err := prodTx.CreateVariant(ctx, pv.Variant); err != nil {
			return err
		}
		if err := s.AttrSvc.CommitVariantAttributes(ctx, attrTx, pv.Variant.ID, pv.Pairs); err != nil {
			return err
		}
		if err := s.upsertVariantStocks(ctx, prodTx, pv.Variant.ID, pv.Stocks); err != nil {
			return err
		}
		return s.recalcMinimalPrice(ctx, prodTx, product)
	})
	if err != nil {
		return nil, err
	}

	if s.Webhook != nil {
		s.Webhook.Notify(webhook.EventVariantCreated, map[string]interface{}{
			"product_id": product.ID,
			"variant_id": pv.Variant.ID,
			"sku":        pv.Variant.SKU,
		})
	}
	return pv.Variant, nil
}

func (s *ProductService) upsertVariantStocks(ctx context.Context, repo repository.ProductRepository, variantID int64, stocks []model.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	for i := range stocks {
		stocks[i].VariantID = variantID
	}
	return repo.UpsertStocks(ctx, stocks)
}

// recalcMinimalPrice 重算商品的最低启用变体价缓存
func (s *ProductService) recalcMinimalPrice(ctx context.Context, repo repository.ProductRepository, product *model.Product) error {
	min, err := repo.MinEnabledVariantPrice(ctx, product.ID)
	if err != nil {
		return err
	}
	if min == product.MinimalVariantPriceAmount {
		return nil
	}
	product.MinimalVariantPriceAmount = min
	return repo.UpdateFields(ctx, product.ID, map[string]interface{}{"minimal_variant_price_amount": min})
}

// attachToCollection 把商品追加到集合末尾（已在集合内则跳过）
func (s *ProductService) attachToCollection(ctx context.Context, collectionID, productID int64) error {
	if _, err := s.CollRepo.GetByID(ctx, collectionID); errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("集合不存在: %d", collectionID))
	} else if err != nil {
		return err
	}
	_, err := s.CollRepo.GetJoin(ctx, collectionID, productID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	max, err := s.CollRepo.MaxSortOrder(ctx, collectionID)
	if err != nil {
		return err
	}
	return s.CollRepo.CreateJoin(ctx, &model.CollectionProduct{
		CollectionID: collectionID,
		ProductID:    productID,
		SortOrder:    max + 1,
	})
}

// ==================== 商品更新/查询 ====================

// UpdateProduct 更新商品基本信息与商品维度属性
// 结果对里没出现的属性保持原有赋值不动
func (s *ProductService) UpdateProduct(ctx context.Context, productID int64, req *dto.UpdateProductReq) (*model.Product, error) {
	product, err := s.ProductRepo.GetByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("商品不存在: %d", productID))
	} else if err != nil {
		return nil, err
	}

	var pairs []ResolvedAttribute
	if len(req.Attributes) > 0 {
		candidates, err := s.AttrRepo.ListProductAttributesForType(ctx, product.ProductTypeID, false)
		if err != nil {
			return nil, err
		}
		// 更新场景不做必填全覆盖：没提到的属性保持原状
		pairs, err = s.AttrSvc.ResolveAttributes(ctx, req.Attributes, candidates, AttributeModeVariant)
		if err != nil {
			return nil, err
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prodTx := s.ProductRepo.WithTx(tx)
		attrTx := s.AttrRepo.WithTx(tx)

		if req.Name != "" {
			product.Name = req.Name
		}
		if req.Description != "" {
			product.Description = req.Description
		}
		if req.IsPublished != nil {
			product.IsPublished = *req.IsPublished
		}
		if req.Tags != nil {
			product.Tags = req.Tags
		}
		if err := prodTx.Update(ctx, product); err != nil {
			return err
		}
		return s.AttrSvc.CommitProductAttributes(ctx, attrTx, product.ID, pairs)
	})
	if err != nil {
		return nil, err
	}

	if s.Webhook != nil {
		s.Webhook.Notify(webhook.EventProductUpdated, map[string]interface{}{"product_id": product.ID})
	}
	return s.ProductRepo.GetByID(ctx, product.ID)
}

// DeleteProduct 软删除商品
func (s *ProductService) DeleteProduct(ctx context.Context, productID int64) error {
	if _, err := s.ProductRepo.GetByID(ctx, productID); errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("商品不存在: %d", productID))
	} else if err != nil {
		return err
	}
	if err := s.ProductRepo.Delete(ctx, productID); err != nil {
		return err
	}
	if s.Webhook != nil {
		s.Webhook.Notify(webhook.EventProductDeleted, map[string]interface{}{"product_id": productID})
	}
	return nil
}

// GetProduct 查询单个商品
func (s *ProductService) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	product, err := s.ProductRepo.GetByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.CodeNotFound, fmt.Sprintf("商品不存在: %d", productID))
	}
	return product, err
}

// ListProducts 分页查询商品
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]model.Product, int64, error) {
	return s.ProductRepo.List(ctx, filter)
}
