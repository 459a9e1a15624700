package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"storefront_v1/internal/repository"
	"storefront_v1/pkg/webhook"
)

// ==================== PriceSweepTask 最低价缓存巡检任务 ====================

// PriceSweepTask 定时重算商品的最低启用变体价缓存
// 写路径上每次变体变动都会即时重算，这里兜底扫一遍
// 修正绕过服务层的数据变更（如人工修库、批量导入）
type PriceSweepTask struct {
	productRepo repository.ProductRepository
	dispatcher  *webhook.Dispatcher
	cron        *cron.Cron
}

// NewPriceSweepTask 创建巡检任务
func NewPriceSweepTask(pr repository.ProductRepository, wh *webhook.Dispatcher) *PriceSweepTask {
	return &PriceSweepTask{
		productRepo: pr,
		dispatcher:  wh,
		cron:        cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务，每小时整点巡检一次
func (t *PriceSweepTask) Start() {
	_, err := t.cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		t.SweepOnce(ctx)
	})
	if err != nil {
		log.Printf("❌ [PriceSweep] 注册定时任务失败: %v", err)
		return
	}
	t.cron.Start()
	log.Println("✅ [PriceSweep] 最低价巡检任务已启动 (每小时)")
}

// Stop 停止定时任务
func (t *PriceSweepTask) Stop() {
	t.cron.Stop()
	log.Println("[PriceSweep] 最低价巡检任务已停止")
}

// SweepOnce 执行一轮巡检：一次聚合查询拿到全部最低价，只回写有出入的商品
func (t *PriceSweepTask) SweepOnce(ctx context.Context) {
	start := time.Now()
	prices, err := t.productRepo.MinPriceByProduct(ctx)
	if err != nil {
		log.Printf("❌ [PriceSweep] 聚合查询失败: %v", err)
		return
	}

	updated := 0
	for productID, price := range prices {
		product, err := t.productRepo.GetByID(ctx, productID)
		if err != nil {
			continue
		}
		if product.MinimalVariantPriceAmount == price {
			continue
		}
		err = t.productRepo.UpdateFields(ctx, productID, map[string]interface{}{
			"minimal_variant_price_amount": price,
		})
		if err != nil {
			log.Printf("⚠️ [PriceSweep] 商品 %d 回写失败: %v", productID, err)
			continue
		}
		updated++
		if t.dispatcher != nil {
			t.dispatcher.Notify(webhook.EventPriceRecalced, map[string]interface{}{
				"product_id": productID,
				"price":      price,
			})
		}
	}
	log.Printf("[PriceSweep] 巡检完成: 扫描 %d, 修正 %d, 耗时 %v", len(prices), updated, time.Since(start))
}
