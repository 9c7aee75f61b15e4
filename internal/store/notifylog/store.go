// Package notifylog 持久化通知审计记录。
// 渲染层对调用方永不报错，退化只有在这里落档后才可被运维看到。
package notifylog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Record 是一条通知的审计事实。
type Record struct {
	ID        string
	Kind      string
	Symbol    string
	Body      string
	Payload   []byte
	Degraded  bool
	Cause     string
	CreatedAt time.Time
}

type notificationModel struct {
	ID            string         `gorm:"column:id;primaryKey"`
	Kind          string         `gorm:"column:kind;index"`
	Symbol        string         `gorm:"column:symbol;index"`
	Body          string         `gorm:"column:body"`
	Payload       datatypes.JSON `gorm:"column:payload;type:TEXT"`
	Degraded      bool           `gorm:"column:degraded;index"`
	Cause         string         `gorm:"column:cause"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (notificationModel) TableName() string { return "notifications" }

// Store 基于 Gorm + SQLite 的通知审计存储。
type Store struct {
	db *gorm.DB
}

// New 打开（必要时创建）审计库并完成建表。
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("notifylog: 审计库路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&notificationModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: 给并发的 HTTP 查询留一点余量，同时压住锁竞争。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert 写入一条审计记录。CreatedAt 为零时取当前时间。
func (s *Store) Insert(ctx context.Context, rec Record) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("notifylog store 未初始化")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("notifylog: 记录缺少 id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	model := notificationModel{
		ID:            rec.ID,
		Kind:          rec.Kind,
		Symbol:        rec.Symbol,
		Body:          rec.Body,
		Degraded:      rec.Degraded,
		Cause:         rec.Cause,
		CreatedAtUnix: rec.CreatedAt.Unix(),
	}
	if len(rec.Payload) > 0 {
		model.Payload = datatypes.JSON(rec.Payload)
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// Recent 返回最近 limit 条记录，新在前。
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	return s.query(ctx, limit, nil)
}

// RecentDegraded 返回最近 limit 条退化记录，用于排查静默兜底。
func (s *Store) RecentDegraded(ctx context.Context, limit int) ([]Record, error) {
	return s.query(ctx, limit, map[string]any{"degraded": true})
}

// CountByKind 按通知类别统计总量。
func (s *Store) CountByKind(ctx context.Context) (map[string]int64, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("notifylog store 未初始化")
	}
	var rows []struct {
		Kind  string
		Total int64
	}
	err := s.db.WithContext(ctx).
		Model(&notificationModel{}).
		Select("kind, COUNT(*) AS total").
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Kind] = row.Total
	}
	return out, nil
}

func (s *Store) query(ctx context.Context, limit int, where map[string]any) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("notifylog store 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	tx := s.db.WithContext(ctx).
		Model(&notificationModel{}).
		Order("created_at DESC, id DESC").
		Limit(limit)
	if len(where) > 0 {
		tx = tx.Where(where)
	}
	var models []notificationModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(models))
	for _, m := range models {
		out = append(out, Record{
			ID:        m.ID,
			Kind:      m.Kind,
			Symbol:    m.Symbol,
			Body:      m.Body,
			Payload:   []byte(m.Payload),
			Degraded:  m.Degraded,
			Cause:     m.Cause,
			CreatedAt: time.Unix(m.CreatedAtUnix, 0),
		})
	}
	return out, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
