package shared

import (
	"sync"
	"time"
)

// ===========================
// Clock 與營業日
// ===========================

// Clock 時間來源
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系統時間
type SystemClock struct{}

// Now 返回目前時間
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock 可手動推進的時鐘（測試用）
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock 建立固定時鐘
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// Now 返回目前設定的時間
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 設定時間
func (c *FixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance 推進時間
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// DefaultBusinessOffsetHours 營業日預設時區（泰國時間 UTC+7）
const DefaultBusinessOffsetHours = 7

// businessDayLayout 營業日字串格式
const businessDayLayout = "2006-01-02"

// BusinessCalendar 營業日曆
//
// 每日重置、當日完成檢查、活動每日限制、每日首次打卡優惠券
// 全部使用同一個固定時區的日界線。
type BusinessCalendar struct {
	loc *time.Location
}

// NewBusinessCalendar 以 UTC 偏移小時數建立營業日曆
func NewBusinessCalendar(offsetHours int) BusinessCalendar {
	return BusinessCalendar{loc: time.FixedZone("BUSINESS", offsetHours*3600)}
}

// DefaultBusinessCalendar 泰國時間營業日曆
func DefaultBusinessCalendar() BusinessCalendar {
	return NewBusinessCalendar(DefaultBusinessOffsetHours)
}

// Day 返回 t 所屬的營業日（YYYY-MM-DD）
func (c BusinessCalendar) Day(t time.Time) string {
	return t.In(c.location()).Format(businessDayLayout)
}

// SameDay 判斷兩個時間是否屬於同一營業日
func (c BusinessCalendar) SameDay(a, b time.Time) bool {
	return c.Day(a) == c.Day(b)
}

// BeforeDay 判斷 a 的營業日是否嚴格早於 b 的營業日
func (c BusinessCalendar) BeforeDay(a, b time.Time) bool {
	return c.Day(a) < c.Day(b)
}

// StartOfDay 返回 t 所屬營業日的起始時間
func (c BusinessCalendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location())
}

func (c BusinessCalendar) location() *time.Location {
	if c.loc == nil {
		return time.FixedZone("BUSINESS", DefaultBusinessOffsetHours*3600)
	}
	return c.loc
}
