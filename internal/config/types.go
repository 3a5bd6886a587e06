package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// ErrInvalidConfig 表示配置校验失败，在任何网络调用之前返回。
var ErrInvalidConfig = errors.New("invalid configuration")

// 运行模式。
const (
	RunModeProd = "prod"
	RunModeTest = "test"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Prosper      ProsperConfig      `mapstructure:"prosper"`
	Investment   InvestmentConfig   `mapstructure:"investment"`
	Notification NotificationConfig `mapstructure:"notification"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Server       ServerConfig       `mapstructure:"server"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	// RunMode 为 prod 时真实下单，test 时仅演练，其余取值跳过下单。
	RunMode string `mapstructure:"run_mode"`
}

// ProsperConfig 描述 Prosper 平台连接信息。
type ProsperConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	ClientID      string        `mapstructure:"client_id"`
	ClientSecret  string        `mapstructure:"client_secret"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ListingsLimit int           `mapstructure:"listings_limit"`
}

// InvestmentConfig 控制选标与下单行为。
type InvestmentConfig struct {
	MinimumAmount  float64           `mapstructure:"minimum_amount"`
	OrderListLimit int               `mapstructure:"order_list_limit"`
	MaxBatchSize   int               `mapstructure:"max_batch_size"`
	GlobalFilters  map[string]string `mapstructure:"global_filters"`
	FilterSetPath  string            `mapstructure:"filter_set_path"`
}

// NotificationConfig 控制邮件通知，Gmail 凭据为空时跳过发送。
type NotificationConfig struct {
	From   string      `mapstructure:"from"`
	To     []string    `mapstructure:"to"`
	Gmail  GmailConfig `mapstructure:"gmail"`
	Prefix string      `mapstructure:"subject_prefix"`
}

// GmailConfig 描述 Gmail API 的 OAuth2 刷新令牌凭据。
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token"`
}

// Enabled 判断是否配置了可用的 Gmail 凭据。
func (g GmailConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RefreshToken != ""
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string        `mapstructure:"level"`
	Encoding         string        `mapstructure:"encoding"`
	Development      bool          `mapstructure:"development"`
	OutputPaths      []string      `mapstructure:"output_paths"`
	ErrorOutputPaths []string      `mapstructure:"error_output_paths"`
	File             LogFileConfig `mapstructure:"file"`
}

// LogFileConfig 控制滚动日志文件，Path 为空时不启用。
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ServerConfig 控制 HTTP 入口。
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if strings.TrimSpace(c.App.RunMode) == "" {
		err = multierr.Append(err, errors.New("app.run_mode 不能为空"))
	}
	if c.Prosper.BaseURL == "" {
		err = multierr.Append(err, errors.New("prosper.base_url 不能为空"))
	}
	if c.Prosper.ClientID == "" || c.Prosper.ClientSecret == "" {
		err = multierr.Append(err, errors.New("prosper.client_id 与 client_secret 不能为空"))
	}
	if c.Prosper.Username == "" || c.Prosper.Password == "" {
		err = multierr.Append(err, errors.New("prosper.username 与 password 不能为空"))
	}
	if c.Prosper.Timeout <= 0 {
		err = multierr.Append(err, errors.New("prosper.timeout 必须大于0"))
	}
	if c.Prosper.ListingsLimit <= 0 {
		err = multierr.Append(err, errors.New("prosper.listings_limit 必须大于0"))
	}
	if c.Investment.MinimumAmount <= 0 {
		err = multierr.Append(err, errors.New("investment.minimum_amount 必须大于0"))
	}
	if c.Investment.OrderListLimit <= 0 {
		err = multierr.Append(err, errors.New("investment.order_list_limit 必须大于0"))
	}
	if c.Investment.MaxBatchSize <= 0 || c.Investment.MaxBatchSize > 100 {
		err = multierr.Append(err, errors.New("investment.max_batch_size 必须位于[1,100]"))
	}
	if c.Investment.FilterSetPath == "" {
		err = multierr.Append(err, errors.New("investment.filter_set_path 不能为空"))
	}
	if c.Notification.Gmail.Enabled() {
		if c.Notification.From == "" {
			err = multierr.Append(err, errors.New("notification.from 不能为空"))
		}
		if len(c.Notification.To) == 0 {
			err = multierr.Append(err, errors.New("notification.to 至少包含一个收件人"))
		}
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path 不能为空"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, errors.New("server.port 必须位于[1,65535]"))
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
