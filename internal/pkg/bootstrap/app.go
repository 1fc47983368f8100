// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/metrics"
	"storefront/internal/pkg/nacos"
	"storefront/internal/pkg/tracing"
)

// AppCtx 在注册阶段交给各个服务，用来挂路由、后台任务和关停钩子
type AppCtx struct {
	Mux      *http.ServeMux
	Config   *Config
	Nacos    *nacos.Client // 未配置 Nacos 时为 nil
	Metrics  *metrics.ServerMetrics
	Registry *prometheus.Registry // 服务自己的指标也注册到这里
	Addr     string               // 实际监听地址

	serviceName string
	workers     []worker
	closers     []closer
}

type worker struct {
	name string
	run  func(ctx context.Context) error
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

// Handle 注册一个路由，自动加上追踪和请求指标
func (a *AppCtx) Handle(pattern string, h http.Handler) {
	a.Mux.Handle(pattern, tracing.Middleware(a.serviceName, pattern, a.Metrics.Wrap(pattern, h)))
}

// Go 注册一个随服务运行的后台任务，ctx 在关停时取消。返回错误会让整个服务退出。
func (a *AppCtx) Go(name string, run func(ctx context.Context) error) {
	a.workers = append(a.workers, worker{name: name, run: run})
}

// OnShutdown 注册关停钩子，按注册的逆序执行
func (a *AppCtx) OnShutdown(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Config           *Config
	RegisterHandlers func(app *AppCtx) error // 每个服务注册自己的 HTTP 路由和依赖
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑，阻塞直到收到 SIGINT/SIGTERM。
func StartService(info AppInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Run(ctx, info)
}

// Run 启动服务并在 ctx 结束或任一后台任务失败时优雅关停
func Run(ctx context.Context, info AppInfo) error {
	cfg := info.Config
	logger.Init(logger.Options{Service: info.ServiceName, Level: cfg.App.LogLevel, File: cfg.App.LogFile})
	log := logger.L()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app := &AppCtx{
		Mux:         http.NewServeMux(),
		Config:      cfg,
		Metrics:     metrics.NewServerMetrics(reg, info.ServiceName),
		Registry:    reg,
		serviceName: info.ServiceName,
	}

	// 1. Tracer，最先初始化，最后关闭
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Jaeger.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	app.OnShutdown("tracer provider", tp.Shutdown)

	// 2. 监听端口
	ln, err := net.Listen("tcp", cfg.App.HTTPAddr)
	if err != nil {
		app.shutdown(context.Background())
		return fmt.Errorf("could not listen on %s: %w", cfg.App.HTTPAddr, err)
	}
	app.Addr = ln.Addr().String()

	// 3. 通用路由 + 服务路由
	app.Mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	app.Mux.Handle("GET /metrics", metrics.Handler(reg))
	if info.RegisterHandlers != nil {
		if err := info.RegisterHandlers(app); err != nil {
			_ = ln.Close()
			app.shutdown(context.Background())
			return fmt.Errorf("failed to register %s: %w", info.ServiceName, err)
		}
	}

	// 4. 可选的服务注册
	var deregister func()
	if cfg.Nacos.ServerAddrs != "" {
		deregister, err = app.registerNacos(ln.Addr())
		if err != nil {
			_ = ln.Close()
			app.shutdown(context.Background())
			return err
		}
	}

	server := &http.Server{Handler: app.Mux, ReadHeaderTimeout: 5 * time.Second}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", app.Addr).Msgf("%s listening", info.ServiceName)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	for _, w := range app.workers {
		g.Go(func() error {
			log.Info().Str("worker", w.name).Msg("worker started")
			if err := w.run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("worker %s: %w", w.name, err)
			}
			log.Info().Str("worker", w.name).Msg("worker stopped")
			return nil
		})
	}

	// 5. 优雅关停：先摘除注册，再停 HTTP，最后逆序执行关停钩子
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msgf("Shutting down service %s...", info.ServiceName)

		sctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		if deregister != nil {
			deregister()
		}
		if err := server.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down http server")
		} else {
			log.Info().Msg("HTTP server shut down.")
		}
		app.shutdown(sctx)
		return nil
	})

	err = g.Wait()
	log.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
	return err
}

func (a *AppCtx) shutdown(ctx context.Context) {
	log := logger.L()
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			log.Error().Err(err).Str("component", c.name).Msg("shutdown failed")
			continue
		}
		log.Info().Str("component", c.name).Msg("shut down")
	}
}

func (a *AppCtx) registerNacos(addr net.Addr) (func(), error) {
	cfg := a.Config.Nacos
	client, err := nacos.NewNacosClient(cfg.ServerAddrs, cfg.Namespace, cfg.Group)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nacos client: %w", err)
	}
	a.Nacos = client

	ip, err := GetOutboundIP()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbound IP address: %w", err)
	}
	_, portStr, _ := net.SplitHostPort(addr.String())
	port, _ := strconv.Atoi(portStr)

	if err := client.RegisterServiceInstance(a.serviceName, ip, port); err != nil {
		return nil, err
	}
	return func() {
		if err := client.DeregisterServiceInstance(a.serviceName, ip, port); err != nil {
			logger.L().Error().Err(err).Msg("Error deregistering from Nacos")
		}
		client.Close()
	}, nil
}
