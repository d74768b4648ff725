package shared

import "time"

// DomainEvent 領域事件
type DomainEvent interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
	// AggregateID 產生事件的聚合根（參加記錄、帳戶等）
	AggregateID() string
}

// EventPublisher 事件發布器
//
// 事件在事務提交後才發布；訂閱者的失敗不影響已提交的狀態。
type EventPublisher interface {
	Publish(event DomainEvent) error
	PublishBatch(events []DomainEvent) error
}

// EventSubscriber 事件訂閱器
type EventSubscriber interface {
	Subscribe(eventType string, handler EventHandler) error
}

// EventHandler 單一事件類型的處理器
type EventHandler interface {
	Handle(event DomainEvent) error
	EventType() string
}

type handlerFunc struct {
	eventType string
	fn        func(DomainEvent) error
}

func (h handlerFunc) Handle(event DomainEvent) error { return h.fn(event) }
func (h handlerFunc) EventType() string              { return h.eventType }

// NewEventHandler 以函數建立處理器
func NewEventHandler(eventType string, fn func(DomainEvent) error) EventHandler {
	return handlerFunc{eventType: eventType, fn: fn}
}
