// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var base zerolog.Logger

// Init 初始化全局日志器。所有日志都带上服务名，输出为 JSON 到 stdout。
// 必须在服务启动时最先调用。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
	// 让 zerolog.Ctx 在没有绑定 logger 的 context 上也能拿到全局实例
	zerolog.DefaultContextLogger = &base
}

// L 返回全局日志器。
func L() *zerolog.Logger {
	return &base
}

// Ctx 返回绑定在 context 上的日志器，没有则回退到全局实例。
// 用法: logger.Ctx(ctx).Info().Str("order_id", id).Msg("order placed")
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext 将携带额外字段的日志器绑定到 context，
// 供同一次请求的下游代码通过 Ctx 取用。
func WithContext(ctx context.Context, fields map[string]string) context.Context {
	lc := base.With()
	for k, v := range fields {
		lc = lc.Str(k, v)
	}
	l := lc.Logger()
	return l.WithContext(ctx)
}
