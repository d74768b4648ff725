package events

import (
	"fmt"
	"sync"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
	"github.com/sirupsen/logrus"
)

// Bus 行程內非同步事件匯流排
//
// 實作 shared.EventPublisher 與 shared.EventSubscriber。
// 每個處理器在獨立 goroutine 執行；處理器的錯誤與 panic 只記錄。
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	logger   logrus.FieldLogger
	wg       sync.WaitGroup
	closed   bool
}

// NewBus 創建事件匯流排
func NewBus(logger logrus.FieldLogger) *Bus {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Bus{
		handlers: make(map[string][]shared.EventHandler),
		logger:   logger,
	}
}

// Subscribe 註冊處理器
func (b *Bus) Subscribe(eventType string, handler shared.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for event type %q", eventType)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish 發布單一事件（不等待處理器完成）
func (b *Bus) Publish(event shared.DomainEvent) error {
	if event == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("event bus closed, dropping %s", event.EventType())
	}

	for _, h := range b.handlers[event.EventType()] {
		b.wg.Add(1)
		go b.dispatch(h, event)
	}
	return nil
}

// PublishBatch 依序發布多個事件
func (b *Bus) PublishBatch(events []shared.DomainEvent) error {
	for _, event := range events {
		if err := b.Publish(event); err != nil {
			return err
		}
	}
	return nil
}

// Flush 等待目前已派發的處理器結束（不停止匯流排）
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wg.Wait()
}

// Close 停止接受新事件並等待處理中的處理器結束
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) dispatch(h shared.EventHandler, event shared.DomainEvent) {
	defer b.wg.Done()
	log := b.logger.WithFields(logrus.Fields{
		"event_id":     event.EventID(),
		"event_type":   event.EventType(),
		"aggregate_id": event.AggregateID(),
	})
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("event handler panicked")
		}
	}()

	if err := h.Handle(event); err != nil {
		log.WithError(err).Warn("event handler failed")
	}
}
