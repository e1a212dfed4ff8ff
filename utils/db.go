package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"relationships/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// GormLogger GORM 日志器：只打印慢查询和真实错误
type GormLogger struct {
	Log           *zap.Logger
	SlowThreshold time.Duration // 慢查询阈值
}

func NewGormLogger(log *zap.Logger, slowThreshold time.Duration) *GormLogger {
	return &GormLogger{Log: log, SlowThreshold: slowThreshold}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if msg != "record not found" {
		l.Log.Sugar().Errorf("[GORM] "+msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		// 正常的未命中
	case err != nil && errors.Is(err, gorm.ErrDuplicatedKey):
		// get-or-create 竞争时的预期冲突
		l.Log.Debug("duplicate key", zap.Duration("elapsed", elapsed), zap.String("sql", sql))
	case err != nil:
		l.Log.Error("query failed", zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	case l.SlowThreshold > 0 && elapsed >= l.SlowThreshold:
		l.Log.Warn("slow query", zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}

func gormConfig(slowThreshold time.Duration) *gorm.Config {
	return &gorm.Config{
		Logger:         NewGormLogger(GetLogger(), slowThreshold),
		TranslateError: true, // 唯一约束冲突 -> gorm.ErrDuplicatedKey
	}
}

// InitDB 初始化数据库连接
func InitDB(databaseURL string, slowThreshold time.Duration) error {
	var err error
	DB, err = gorm.Open(postgres.Open(databaseURL), gormConfig(slowThreshold))
	if err != nil {
		return err
	}

	// 获取底层的 sql.DB 以配置连接池
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 连接池配置
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)

	GetLogger().Info("database connected")
	return nil
}

// OpenSQLite 打开 SQLite 数据库（本地文件或 ":memory:"），主要用于测试
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(0))
	if err != nil {
		return nil, err
	}
	// 外键约束在 SQLite 中默认关闭
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	// 内存库每个连接都是独立的数据库
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate 建表（relationship_status, relationship）
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.RelationshipStatus{}, &model.Relationship{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}

// CloseDB 关闭数据库连接
func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
