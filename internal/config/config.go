package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "investor"
)

// Load 读取配置文件并结合环境变量返回 Config。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	bindEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	return decode(v)
}

// LoadFromEnv 仅使用默认值与环境变量构造配置，适用于无配置文件的部署环境。
func LoadFromEnv() (*Config, error) {
	v := viper.New()
	bindEnv(v)
	setDefaults(v)
	return decode(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaultGlobalFilters 逐项注册默认值，使每个过滤项都能单独被文件或环境变量覆盖。
var defaultGlobalFilters = map[string]string{
	"listing_category_id": "1",
	"has_mortgage":        "true",
	"income_range":        "4,5,6",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.run_mode", RunModeTest)

	v.SetDefault("prosper.base_url", "https://api.prosper.com")
	v.SetDefault("prosper.client_id", "")
	v.SetDefault("prosper.client_secret", "")
	v.SetDefault("prosper.username", "")
	v.SetDefault("prosper.password", "")
	v.SetDefault("prosper.timeout", "30s")
	v.SetDefault("prosper.listings_limit", 5000)

	v.SetDefault("investment.minimum_amount", 25.0)
	v.SetDefault("investment.order_list_limit", 25)
	v.SetDefault("investment.max_batch_size", 100)
	for key, value := range defaultGlobalFilters {
		v.SetDefault("investment.global_filters."+key, value)
	}
	v.SetDefault("investment.filter_set_path", "configs/filterset.yml")

	v.SetDefault("notification.from", "")
	v.SetDefault("notification.to", []string{})
	v.SetDefault("notification.subject_prefix", "")
	v.SetDefault("notification.gmail.client_id", "")
	v.SetDefault("notification.gmail.client_secret", "")
	v.SetDefault("notification.gmail.refresh_token", "")

	v.SetDefault("database.path", "data/investor.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size_mb", 50)
	v.SetDefault("logging.file.max_backups", 5)
	v.SetDefault("logging.file.max_age_days", 14)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
