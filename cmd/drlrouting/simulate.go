package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dep2p/go-drlrouting"
	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/internal/report"
	"github.com/dep2p/go-drlrouting/internal/sim"
)

// simulate 参数
var simFlags struct {
	configFile  string
	preset      string
	policy      string
	external    string
	onnxModel   string
	nodes       int
	steps       int
	seed        int64
	historySize int
	reportPath  string
	metricsAddr string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run routing agents against the reference wireless simulation",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simFlags.configFile, "config", "", "配置文件路径（JSON 或 YAML）")
	f.StringVar(&simFlags.preset, "preset", "", "预设 (default/learned/adaptive)")
	f.StringVar(&simFlags.policy, "policy", "", "策略 (heuristic/external/onnx/adaptive)")
	f.StringVar(&simFlags.external, "external", "", "外部决策服务地址")
	f.StringVar(&simFlags.onnxModel, "onnx-model", "", "ONNX 模型路径")
	f.IntVar(&simFlags.nodes, "nodes", 0, "节点数（0 = 使用配置）")
	f.IntVar(&simFlags.steps, "steps", 0, "仿真步数（0 = 使用配置）")
	f.Int64Var(&simFlags.seed, "seed", 0, "随机种子（0 = 使用配置）")
	f.IntVar(&simFlags.historySize, "history", 0, "投递结果窗口容量（0 = 使用配置）")
	f.StringVar(&simFlags.reportPath, "report", "", "导出 xlsx 报告路径")
	f.StringVar(&simFlags.metricsAddr, "metrics-addr", "", "暴露 /metrics 的地址，如 :9090")
}

// simulateOptions 把命令行参数转换为运行时选项
func simulateOptions() ([]drlrouting.Option, error) {
	var opts []drlrouting.Option
	if simFlags.configFile != "" {
		opts = append(opts, drlrouting.WithConfigFile(simFlags.configFile))
	}
	if simFlags.preset != "" {
		opts = append(opts, drlrouting.WithPreset(simFlags.preset))
	}
	if simFlags.policy != "" {
		opts = append(opts, drlrouting.WithPolicy(config.PolicyKind(simFlags.policy)))
	}
	if simFlags.external != "" {
		opts = append(opts, drlrouting.WithExternalAddress(simFlags.external))
	}
	if simFlags.onnxModel != "" {
		opts = append(opts, drlrouting.WithOnnxModel(simFlags.onnxModel))
	}
	if simFlags.historySize > 0 {
		opts = append(opts, drlrouting.WithHistorySize(simFlags.historySize))
	}

	zl, err := fxLogger()
	if err != nil {
		return nil, err
	}
	if zl != nil {
		opts = append(opts, drlrouting.WithFxLogger(zl))
	}
	return opts, nil
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	opts, err := simulateOptions()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts = append(opts, drlrouting.WithRegisterer(reg))

	rt, err := drlrouting.Start(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("关闭运行时失败", "err", err)
		}
	}()

	if err := applyConfigLogging(cmd, rt.Config().Log); err != nil {
		return err
	}

	simCfg := rt.Config().Simulation
	if simFlags.nodes > 0 {
		simCfg.Nodes = simFlags.nodes
	}
	if simFlags.steps > 0 {
		simCfg.Steps = simFlags.steps
	}
	if simFlags.seed != 0 {
		simCfg.Seed = simFlags.seed
	}

	if addr := metricsAddr(rt.Config()); addr != "" {
		srv := serveMetrics(addr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	world, err := sim.NewWorld(simCfg, clock.New())
	if err != nil {
		return err
	}
	runner, err := sim.NewRunner(world, rt.Factory(), sim.WithDecisionLog(simFlags.reportPath != ""))
	if err != nil {
		return err
	}

	res, runErr := runner.Run(ctx, simCfg.Steps)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	printSummary(cmd, res)

	if simFlags.reportPath != "" {
		if err := report.Write(simFlags.reportPath, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", simFlags.reportPath)
	}
	return nil
}

// metricsAddr 命令行参数优先于配置
func metricsAddr(cfg *config.Config) string {
	if simFlags.metricsAddr != "" {
		return simFlags.metricsAddr
	}
	if cfg.Metrics.Enabled {
		return cfg.Metrics.Addr
	}
	return ""
}

// serveMetrics 在后台暴露 /metrics
func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务退出", "err", err)
		}
	}()
	logger.Info("指标服务已启动", "addr", addr)
	return srv
}

func printSummary(cmd *cobra.Command, res *sim.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "steps: %d  elapsed: %s  network PDR: %.3f\n", res.Steps, res.Elapsed.Round(time.Millisecond), res.PDR())
	fmt.Fprintf(out, "%-6s %-10s %8s %8s %7s %10s %9s\n", "node", "policy", "sent", "recv", "pdr", "delay(ms)", "fallback")
	for _, s := range res.Agents {
		fmt.Fprintf(out, "%-6s %-10s %8d %8d %7.3f %10.2f %9d\n",
			s.Node, s.Policy,
			s.Counters.PacketsSent, s.Counters.PacketsReceived,
			s.Counters.PDR(), s.Counters.MeanDelay(), s.Fallbacks)
	}
}
