package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"prosper-investor/internal/app"
	"prosper-investor/internal/config"
	"prosper-investor/internal/log"
	"prosper-investor/internal/store"
)

const defaultConfigPath = "configs/config.yaml"

var (
	configPath string
	envFile    string
	runMode    string
)

func main() {
	root := &cobra.Command{
		Use:           "investor",
		Short:         "Prosper 自动投标工具",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml，不存在时仅读取环境变量")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "启动前加载的 .env 文件，不存在时忽略")
	root.PersistentFlags().StringVar(&runMode, "run-mode", "", "覆盖 app.run_mode（prod / test）")

	root.AddCommand(eventCmd("buy-notes", "执行一次自动投标", app.EventBuyNotes))
	root.AddCommand(eventCmd("account-summary", "发送账户概况通知", app.EventAccountSummary))
	root.AddCommand(serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		stop()
		os.Exit(1)
	}
}

func eventCmd(use, short, event string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, _ *zap.Logger) error {
				return a.RunEvent(ctx, event)
			})
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务，接收 Pub/Sub 推送事件",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App, logger *zap.Logger) error {
				if err := a.Serve(ctx); err != nil {
					return err
				}
				logger.Info("系统已安全退出")
				return nil
			})
		},
	}
}

func withApp(ctx context.Context, fn func(context.Context, *app.App, *zap.Logger) error) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("加载 %s 失败: %w", envFile, err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if runMode != "" {
		cfg.App.RunMode = runMode
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	sqliteStore, err := store.NewSQLite(cfg.Database)
	if err != nil {
		logger.Error("初始化数据库失败", zap.Error(err))
		return err
	}
	defer func() {
		if closeErr := sqliteStore.Close(); closeErr != nil {
			logger.Warn("关闭数据库失败", zap.Error(closeErr))
		}
	}()

	investor, err := app.New(ctx, cfg, logger, sqliteStore)
	if err != nil {
		logger.Error("初始化应用失败", zap.Error(err))
		return err
	}

	return fn(ctx, investor, logger)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return config.LoadFromEnv()
	}
	return config.Load(defaultConfigPath)
}
