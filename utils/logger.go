package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var zapLogger *zap.Logger

// InitLogger 初始化全局 zap 日志器
func InitLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	zapLogger = l
	return nil
}

// GetLogger 获取日志器（未初始化时返回空日志器）
func GetLogger() *zap.Logger {
	if zapLogger == nil {
		return zap.NewNop()
	}
	return zapLogger
}

// SyncLogger 刷新缓冲
func SyncLogger() {
	if zapLogger != nil {
		_ = zapLogger.Sync()
	}
}
