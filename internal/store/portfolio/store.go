// Package portfolio 持久化资金曲线点位，供图表渲染跨重启使用。
package portfolio

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Point 是落库的一个资金点位。
type Point struct {
	Time  time.Time
	Model string
	Value float64
}

// Store 基于 database/sql + SQLite 的资金点位存储。
// 写入加互斥锁，SQLite 单写者即可满足通知频率。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open 打开（必要时创建）点位库。
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("portfolio store: 路径不能为空")
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		`CREATE TABLE IF NOT EXISTS portfolio_points (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			model TEXT NOT NULL,
			value REAL NOT NULL
		)`,
		"CREATE INDEX IF NOT EXISTS idx_portfolio_points_ts ON portfolio_points(ts)",
		"CREATE INDEX IF NOT EXISTS idx_portfolio_points_model ON portfolio_points(model, ts)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("portfolio store init failed: %w", err)
		}
	}
	return nil
}

// Close 关闭底层连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert 追加一个点位。
func (s *Store) Insert(ctx context.Context, p Point) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("portfolio store 未初始化")
	}
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO portfolio_points (ts, model, value) VALUES (?, ?, ?)",
		p.Time.UnixMilli(), p.Model, p.Value)
	return err
}

// Range 按时间升序返回 model 在 [from, to] 区间内的点位。
// model 为空时不过滤模型；to 为零值时视为不设上限。
func (s *Store) Range(ctx context.Context, model string, from, to time.Time) ([]Point, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("portfolio store 未初始化")
	}
	query := "SELECT ts, model, value FROM portfolio_points WHERE ts >= ?"
	args := []any{from.UnixMilli()}
	if !to.IsZero() {
		query += " AND ts <= ?"
		args = append(args, to.UnixMilli())
	}
	if strings.TrimSpace(model) != "" {
		query += " AND model = ?"
		args = append(args, model)
	}
	query += " ORDER BY ts ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var (
			ts    int64
			m     string
			value float64
		)
		if err := rows.Scan(&ts, &m, &value); err != nil {
			return nil, err
		}
		out = append(out, Point{Time: time.UnixMilli(ts).UTC(), Model: m, Value: value})
	}
	return out, rows.Err()
}

// Latest 返回 model 最近的一个点位，没有数据时 ok 为 false。
func (s *Store) Latest(ctx context.Context, model string) (Point, bool, error) {
	if s == nil || s.db == nil {
		return Point{}, false, fmt.Errorf("portfolio store 未初始化")
	}
	query := "SELECT ts, model, value FROM portfolio_points"
	var args []any
	if strings.TrimSpace(model) != "" {
		query += " WHERE model = ?"
		args = append(args, model)
	}
	query += " ORDER BY ts DESC LIMIT 1"

	var (
		ts    int64
		m     string
		value float64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&ts, &m, &value)
	if err == sql.ErrNoRows {
		return Point{}, false, nil
	}
	if err != nil {
		return Point{}, false, err
	}
	return Point{Time: time.UnixMilli(ts).UTC(), Model: m, Value: value}, true, nil
}
