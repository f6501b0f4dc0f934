// Package log 提供 nearlink 统一日志接口
//
// 基于 Go 标准库 log/slog 封装，组件通过 Logger(name) 获取懒加载 logger。
//
// 支持通过环境变量配置：
//   - NEARLINK_LOG_LEVEL: 日志级别，支持按组件配置
//     格式: 组件=级别,组件=级别,默认级别
//     示例: discovery/coordinator=debug,transport/lan=warn,info
//   - NEARLINK_LOG_FORMAT: text 或 json
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// 日志级别常量（从 slog 导出，方便使用）
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// 环境变量
const (
	EnvLogLevel  = "NEARLINK_LOG_LEVEL"
	EnvLogFormat = "NEARLINK_LOG_FORMAT"
)

// ============================================================================
//                              级别配置
// ============================================================================

// levels 组件级别表
type levels struct {
	def        slog.Level
	components map[string]slog.Level
}

var (
	levelsMu sync.RWMutex
	current  = levels{def: slog.LevelInfo, components: map[string]slog.Level{}}
)

// levelFor 返回组件的生效级别
//
// 组件名按前缀匹配，"discovery" 覆盖 "discovery/coordinator"。
func levelFor(component string) slog.Level {
	levelsMu.RLock()
	defer levelsMu.RUnlock()
	best, bestLen := current.def, -1
	for name, lvl := range current.components {
		if (component == name || strings.HasPrefix(component, name+"/")) && len(name) > bestLen {
			best, bestLen = lvl, len(name)
		}
	}
	return best
}

// minLevel 返回所有配置中的最低级别
func minLevel(l levels) slog.Level {
	m := l.def
	for _, lvl := range l.components {
		if lvl < m {
			m = lvl
		}
	}
	return m
}

// ParseLevel 解析级别名称
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// parseLevels 解析 "组件=级别,...,默认级别"
func parseLevels(spec string, def slog.Level) levels {
	out := levels{def: def, components: map[string]slog.Level{}}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, lvl, ok := strings.Cut(part, "="); ok {
			if l, ok := ParseLevel(lvl); ok {
				out.components[strings.TrimSpace(name)] = l
			}
			continue
		}
		if l, ok := ParseLevel(part); ok {
			out.def = l
		}
	}
	return out
}

// ============================================================================
//                              初始化与设置
// ============================================================================

// Setup 按级别描述和格式重建默认 logger
//
// levelSpec 使用与 NEARLINK_LOG_LEVEL 相同的语法，format 为 "text" 或 "json"。
func Setup(w io.Writer, levelSpec, format string) {
	if w == nil {
		w = os.Stderr
	}
	l := parseLevels(levelSpec, slog.LevelInfo)

	levelsMu.Lock()
	current = l
	levelsMu.Unlock()

	opts := &slog.HandlerOptions{Level: minLevel(l)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h))
}

// SetupFromEnv 按环境变量初始化
func SetupFromEnv() {
	Setup(os.Stderr, os.Getenv(EnvLogLevel), os.Getenv(EnvLogFormat))
}

// SetLevel 设置默认级别，保留组件级别
func SetLevel(level slog.Level) {
	levelsMu.Lock()
	current.def = level
	l := current
	levelsMu.Unlock()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: minLevel(l)})))
}

// ============================================================================
//                              LazyLogger
// ============================================================================

// LazyLogger 懒加载 logger
//
// 每次日志调用时都从 slog.Default() 获取最新的 handler，
// 支持在运行时动态切换日志输出目标。
//
// 使用方式：
//
//	var logger = log.Logger("discovery/coordinator")
//	logger.Info("hello")
type LazyLogger struct {
	component string
}

// Logger 返回带组件名的 LazyLogger
func Logger(component string) *LazyLogger {
	return &LazyLogger{component: component}
}

func (l *LazyLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if level < levelFor(l.component) {
		return
	}
	slog.Default().With("component", l.component).Log(ctx, level, msg, args...)
}

// Debug 输出 Debug 级别日志
func (l *LazyLogger) Debug(msg string, args ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info 输出 Info 级别日志
func (l *LazyLogger) Info(msg string, args ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, args...)
}

// Warn 输出 Warn 级别日志
func (l *LazyLogger) Warn(msg string, args ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, args...)
}

// Error 输出 Error 级别日志
func (l *LazyLogger) Error(msg string, args ...any) {
	l.log(context.Background(), slog.LevelError, msg, args...)
}

// DebugContext 带 context 的 Debug 日志
func (l *LazyLogger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

// InfoContext 带 context 的 Info 日志
func (l *LazyLogger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

// With 添加额外的属性
func (l *LazyLogger) With(args ...any) *slog.Logger {
	return slog.Default().With("component", l.component).With(args...)
}

// Enabled 组件在 level 级别是否输出
func (l *LazyLogger) Enabled(level slog.Level) bool {
	return level >= levelFor(l.component)
}

// ============================================================================
//                              工具函数
// ============================================================================

// TruncateID 安全截取 ID 用于日志显示
func TruncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

func init() {
	if spec := os.Getenv(EnvLogLevel); spec != "" {
		SetupFromEnv()
	}
}
