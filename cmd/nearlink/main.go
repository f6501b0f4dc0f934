// Package main 提供 nearlink 命令行入口
//
// 运行一个节点：打印发现的设备与连接事件，可选自动连接与指标导出。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-nearlink"
	"github.com/dep2p/go-nearlink/config"
	"github.com/dep2p/go-nearlink/pkg/lib/log"
	"github.com/dep2p/go-nearlink/pkg/types"
)

var logger = log.Logger("nearlink/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖（「这次运行」想怎么跑）
//   配置文件：持久化配置（JSON 或 YAML）
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径（.json/.yaml）")
	preset      = flag.String("preset", "", "预设配置 (mobile/desktop/server/minimal)")
	autoConnect = flag.Bool("auto-connect", false, "自动连接发现的设备")
	metricsAddr = flag.String("metrics", "", "Prometheus 指标监听地址，如 :9100")
	logLevel    = flag.String("log-level", "", "日志级别，如 info 或 coordinator=debug,info")
	advertise   = flag.Bool("advertise", false, "在局域网上通告本机")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(nearlink.VersionInfo())
		return nil
	}

	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	level := cfg.Log.Level
	if *logLevel != "" {
		level = *logLevel
	}
	log.Setup(os.Stderr, level, cfg.Log.Format)

	reg := prometheus.NewRegistry()
	opts := []nearlink.Option{
		nearlink.WithConfig(cfg),
		nearlink.WithMetricsRegisterer(reg),
	}
	if *preset != "" {
		opts = append(opts, nearlink.WithPreset(*preset))
	}
	if isFlagSet("advertise") {
		opts = append(opts, nearlink.WithLANAdvertise(*advertise))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("启动 nearlink 节点", "version", nearlink.Version, "commit", nearlink.GitCommit)
	node, err := nearlink.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = node.Close() }()

	if *metricsAddr != "" {
		srv := serveMetrics(*metricsAddr, reg)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	events, cancelEvents, err := node.Events(0)
	if err != nil {
		return err
	}
	defer cancelEvents()

	devices, err := node.Devices(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s 已启动，策略 %s，按 Ctrl+C 退出\n", nearlink.VersionInfo(), node.Strategy())

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\n正在关闭节点...")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			printEvent(ev)
		case d, ok := <-devices:
			if !ok {
				return nil
			}
			printDevice(d)
			if *autoConnect && node.ConnectionState(d.ID) == types.StateDisconnected {
				wg.Add(1)
				go func() {
					defer wg.Done()
					connect(ctx, node, d)
				}()
			}
		}
	}
}

func connect(ctx context.Context, node *nearlink.Node, d types.UnifiedDevice) {
	err := node.Connect(ctx, d)
	switch {
	case err == nil, errors.Is(err, nearlink.ErrConnectInProgress), errors.Is(err, context.Canceled):
	default:
		logger.Debug("自动连接失败", "device", log.TruncateID(d.ID, 8), "error", err)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("指标服务退出", "addr", addr, "error", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", addr)
	return srv
}

func printDevice(d types.UnifiedDevice) {
	fmt.Printf("设备  %-16s %-24s %-10s score=%.2f\n",
		log.TruncateID(d.ID, 16), d.DisplayName, d.Transports, d.QualityScore)
}

func printEvent(ev types.ConnectionEvent) {
	fmt.Printf("事件  %s %s\n", ev.Time.Format("15:04:05"), ev)
}

// isFlagSet 检查命令行参数是否被显式设置
func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
