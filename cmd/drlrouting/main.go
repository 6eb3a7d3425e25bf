// Package main 提供 drlrouting 命令行入口
//
//	drlrouting simulate --nodes 30 --steps 500 --policy adaptive --report out/run.xlsx
//	drlrouting serve-policy --listen :50051 --source roundrobin
//	drlrouting version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dep2p/go-drlrouting"
	"github.com/dep2p/go-drlrouting/config"
	"github.com/dep2p/go-drlrouting/pkg/lib/log"
)

var logger = log.Logger("cmd")

// 全局参数
var (
	logLevel  string
	logFormat string
	fxVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "drlrouting",
	Short: "Per-node next-hop decision engine for multi-hop wireless routing",
	Long: "drlrouting runs routing agents against a reference wireless simulation\n" +
		"and serves learned next-hop policies over gRPC.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "日志级别 (debug/info/warn/error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "日志格式 (text/json)")
	rootCmd.PersistentFlags().BoolVar(&fxVerbose, "fx-log", false, "输出依赖注入装配事件")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = drlrouting.VersionInfo()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging 按全局参数配置日志
func setupLogging() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	switch log.Format(logFormat) {
	case log.FormatText, log.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}
	log.Setup(os.Stderr, level, log.Format(logFormat))
	return nil
}

// applyConfigLogging 用配置文件中的日志设置覆盖未显式指定的全局参数
func applyConfigLogging(cmd *cobra.Command, lc config.LogConfig) error {
	flags := cmd.Flags()
	changed := false
	if !flags.Changed("log-level") && lc.Level != "" && lc.Level != logLevel {
		logLevel, changed = lc.Level, true
	}
	if !flags.Changed("log-format") && lc.Format != "" && lc.Format != logFormat {
		logFormat, changed = lc.Format, true
	}
	if !changed {
		return nil
	}
	return setupLogging()
}

// fxLogger 依赖注入事件日志，未开启时为 nil（丢弃）
func fxLogger() (*zap.Logger, error) {
	if !fxVerbose {
		return nil, nil
	}
	return zap.NewDevelopment()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), drlrouting.VersionInfo())
	},
}
