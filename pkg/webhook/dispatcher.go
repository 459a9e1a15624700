package webhook

import (
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// 事件类型
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventVariantCreated = "variant.created"
	EventZoneUpdated    = "shipping_zone.updated"
	EventPriceRecalced  = "product.minimal_price_recalculated"
)

// Event 对外推送的事件体
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Dispatcher 把目录变更事件推给外部订阅方
// 推送是尽力而为：失败只记日志不重试，不能阻塞主流程
type Dispatcher struct {
	client    *resty.Client
	endpoints []string
	mu        sync.RWMutex
}

// NewDispatcher 创建推送器，endpoints 为空时所有推送都是空操作
func NewDispatcher(endpoints []string) *Dispatcher {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0)
	return &Dispatcher{client: client, endpoints: endpoints}
}

// Notify 异步推送一个事件
func (d *Dispatcher) Notify(eventType string, payload interface{}) {
	d.mu.RLock()
	endpoints := d.endpoints
	d.mu.RUnlock()
	if len(endpoints) == 0 {
		return
	}

	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	}
	go d.push(endpoints, &event)
}

func (d *Dispatcher) push(endpoints []string, event *Event) {
	for _, endpoint := range endpoints {
		resp, err := d.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(event).
			Post(endpoint)
		if err != nil {
			log.Printf("⚠️ [Webhook] 推送失败 %s (%s): %v", event.Type, endpoint, err)
			continue
		}
		if resp.StatusCode() >= 300 {
			log.Printf("⚠️ [Webhook] 订阅方拒收 %s (%s): status=%d", event.Type, endpoint, resp.StatusCode())
		}
	}
}

// SetEndpoints 运行时更新订阅地址
func (d *Dispatcher) SetEndpoints(endpoints []string) {
	d.mu.Lock()
	d.endpoints = endpoints
	d.mu.Unlock()
}
