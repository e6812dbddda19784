// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"emporium/internal/pkg/logger"
	"emporium/internal/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// AppCtx 传给路由注册回调，让服务挂载自己的 HTTP 路由。
type AppCtx struct {
	Mux *http.ServeMux
}

// AppInfo 包含了启动一个服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	JaegerEndpoint   string
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在 HTTP 服务器停止之后按注册顺序执行，用于释放数据库连接、
	// 消息队列 writer 这类资源。
	OnShutdown []func(ctx context.Context)
}

// StartService 封装了通用的启动和优雅关停逻辑：初始化 tracer、
// 拉起 HTTP 服务器、等待退出信号、按序清理。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)

	tp, err := tracing.InitTracerProvider(info.ServiceName, info.JaegerEndpoint)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.L().Info().Str("addr", server.Addr).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal().Err(err).Str("addr", server.Addr).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 阻塞主 goroutine，直到接收到退出信号
	<-quit
	logger.L().Info().Msgf("shutting down %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// 先停接入层，不再接新请求
	if err := server.Shutdown(ctx); err != nil {
		logger.L().Error().Err(err).Msg("error shutting down http server")
	}

	for _, fn := range info.OnShutdown {
		fn(ctx)
	}

	// 最后关 tracer，确保缓存的 span 都发出去
	tracing.Shutdown(ctx, tp)

	logger.L().Info().Msgf("%s gracefully shut down", info.ServiceName)
}
