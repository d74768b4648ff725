package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultCacheSize 預設快取鍵數
const DefaultCacheSize = 64

// DefaultCacheExpiry 預設快取有效期
const DefaultCacheExpiry = time.Minute

// SettingGORM 鍵值設定資料表模型
type SettingGORM struct {
	Key       string    `gorm:"column:setting_key;type:varchar(64);primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定資料表名稱
func (SettingGORM) TableName() string {
	return "quest_settings"
}

// cachedSetting 快取項目（包含「未設定」的結果）
type cachedSetting struct {
	value     string
	ok        bool
	timestamp time.Time
}

// Store 以 GORM 保存設定，讀取經過 LRU 快取
//
// 實作 settings.Store。Set 會使該鍵的快取失效。
type Store struct {
	db     *gorm.DB
	cache  *lru.Cache
	expiry time.Duration
	now    func() time.Time
}

// NewStore 創建設定儲存
func NewStore(db *gorm.DB, cacheSize int, expiry time.Duration) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if expiry <= 0 {
		expiry = DefaultCacheExpiry
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create settings cache: %w", err)
	}
	return &Store{
		db:     db,
		cache:  cache,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// Get 讀取設定值；ok=false 表示未設定
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if cached, ok := s.cache.Get(key); ok {
		entry := cached.(cachedSetting)
		if s.now().Sub(entry.timestamp) < s.expiry {
			return entry.value, entry.ok, nil
		}
		s.cache.Remove(key)
	}

	var row SettingGORM
	err := s.db.WithContext(ctx).Where("setting_key = ?", key).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		s.cache.Add(key, cachedSetting{timestamp: s.now()})
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("failed to read setting %q: %w", key, err)
	}

	s.cache.Add(key, cachedSetting{value: row.Value, ok: true, timestamp: s.now()})
	return row.Value, true, nil
}

// Set 寫入（upsert）設定值
func (s *Store) Set(ctx context.Context, key, value string) error {
	row := &SettingGORM{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	s.cache.Remove(key)
	return nil
}
