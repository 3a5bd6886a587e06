package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"prosper-investor/internal/config"
)

// Store 封装运行日志使用的 SQLite 连接，各组件通过 Migrate 维护自己的表结构。
type Store struct {
	db *sql.DB
}

// NewSQLite 根据配置打开运行日志库。内存库只保留单个连接，否则每个连接会看到各自独立的空库。
func NewSQLite(cfg config.DatabaseConfig) (*Store, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 数据库失败: %w", err)
	}

	if cfg.InMemory {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		return &Store{db: conn}, nil
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("设置 SQLite WAL 模式失败: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("设置 SQLite 同步级别失败: %w", err)
	}

	return &Store{db: conn}, nil
}

// DB 返回底层 *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const migrationsSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	component TEXT NOT NULL,
	version INTEGER NOT NULL,
	applied_at TEXT NOT NULL,
	PRIMARY KEY (component, version)
);`

// Migrate 按顺序执行 component 尚未应用的迁移步骤，第 i 步对应版本 i+1，每步在独立事务中完成。
func (s *Store) Migrate(ctx context.Context, component string, steps ...string) error {
	if _, err := s.db.ExecContext(ctx, migrationsSchema); err != nil {
		return fmt.Errorf("创建迁移记录表失败: %w", err)
	}

	current, err := s.SchemaVersion(ctx, component)
	if err != nil {
		return err
	}

	for i := current; i < len(steps); i++ {
		version := i + 1
		if err := s.applyStep(ctx, component, version, steps[i]); err != nil {
			return err
		}
	}
	return nil
}

// SchemaVersion 返回 component 已应用的最高迁移版本，未迁移时为 0。
func (s *Store) SchemaVersion(ctx context.Context, component string) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations WHERE component = ?`, component,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("查询 %s 迁移版本失败: %w", component, err)
	}
	return version, nil
}

func (s *Store) applyStep(ctx context.Context, component string, version int, stmt string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启迁移事务失败: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("执行 %s 迁移 v%d 失败: %w", component, version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (component, version, applied_at) VALUES (?, ?, ?)`,
		component, version, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("记录 %s 迁移 v%d 失败: %w", component, version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交 %s 迁移 v%d 失败: %w", component, version, err)
	}
	return nil
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败: %w", path, err)
	}
	return nil
}
