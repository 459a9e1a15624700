package task

import (
	"context"
	"log"

	"storefront_v1/internal/repository"
	"storefront_v1/pkg/webhook"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
type TaskManager struct {
	priceTask *PriceSweepTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	ProductRepo repository.ProductRepository
	Dispatcher  *webhook.Dispatcher
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	PriceSweepEnabled bool
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		PriceSweepEnabled: true,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}
	if cfg.PriceSweepEnabled && deps.ProductRepo != nil {
		tm.priceTask = NewPriceSweepTask(deps.ProductRepo, deps.Dispatcher)
	}
	return tm
}

// Start 启动所有任务
func (tm *TaskManager) Start() {
	log.Println("[TaskManager] 正在启动后台任务...")
	if tm.priceTask != nil {
		tm.priceTask.Start()
	}
	log.Println("[TaskManager] 后台任务已全部启动")
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止后台任务...")
	if tm.priceTask != nil {
		tm.priceTask.Stop()
	}
	log.Println("[TaskManager] 后台任务已全部停止")
}

// TriggerPriceSweep 手动触发一轮最低价巡检
func (tm *TaskManager) TriggerPriceSweep(ctx context.Context) error {
	if tm.priceTask == nil {
		return ErrTaskDisabled
	}
	tm.priceTask.SweepOnce(ctx)
	return nil
}

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"price_sweep": tm.priceTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
