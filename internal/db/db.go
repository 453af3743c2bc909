package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open 打开 sqlite 连接。所有时间戳统一以 UTC 写入，唯一约束冲突会被翻译为 gorm.ErrDuplicatedKey。
func Open(dsn string, opts ...Option) (*gorm.DB, error) {
	cfg := &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return gorm.Open(sqlite.Open(dsn), cfg)
}

// Option tweaks the gorm configuration used by Open.
type Option func(*gorm.Config)

// WithLogger replaces the gorm query logger.
func WithLogger(l logger.Interface) Option {
	return func(cfg *gorm.Config) {
		cfg.Logger = l
	}
}

// Silent disables query logging, mostly for tests.
func Silent() Option {
	return WithLogger(logger.Default.LogMode(logger.Silent))
}

// Migrate 自动迁移模式，为核心模型创建表与索引。
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&User{},
		&Tag{},
		&Post{},
		&Comment{},
	)
}

// Init 初始化数据库文件并执行自动迁移。
// databasePath 为空时将回退到默认值 blog.db。
func Init(databasePath string, opts ...Option) (*gorm.DB, error) {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "blog.db"
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	gdb, err := Open(FileDSN(path), opts...)
	if err != nil {
		return nil, err
	}

	if err := Migrate(gdb); err != nil {
		return nil, err
	}

	return gdb, nil
}

// FileDSN builds a sqlite DSN with foreign key enforcement switched on, which the
// cascade deletes of posts and comments rely on.
func FileDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=1"
	}
	return path + "?_foreign_keys=1"
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}

// MemoryDSN names a shared in-memory database; each distinct name is an isolated store.
func MemoryDSN(name string) string {
	return FileDSN("file:" + name + "?mode=memory&cache=shared")
}
