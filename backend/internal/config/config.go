package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "compareConfig"
	envPrefix  = "COMPARE"
)

// 默认搜索路径，和其他服务保持一致
var defaultPaths = []string{"./backend/config", "./config", "."}

type CompareConfig struct {
	Running struct {
		Port int    `mapstructure:"port"`
		Mode string `mapstructure:"mode"`
	} `mapstructure:"running"`
	MySQL struct {
		DSN             string        `mapstructure:"dsn"`
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		MaxIdleConns    int           `mapstructure:"max_idle_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
		AutoMigrate     bool          `mapstructure:"auto_migrate"`
	} `mapstructure:"mysql"`
	Redis struct {
		Enabled  bool     `mapstructure:"enabled"`
		Addrs    []string `mapstructure:"addrs"`
		Password string   `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Enabled bool     `mapstructure:"enabled"`
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Dispatcher struct {
		QueueSize   int           `mapstructure:"queue_size"`
		Workers     int           `mapstructure:"workers"`
		MaxInFlight int           `mapstructure:"max_in_flight"`
		MaxRetry    int           `mapstructure:"max_retry"`
		BaseBackoff time.Duration `mapstructure:"base_backoff"`
		MaxBackoff  time.Duration `mapstructure:"max_backoff"`
	} `mapstructure:"dispatcher"`
	Cache struct {
		PageTTL    time.Duration `mapstructure:"page_ttl"`
		PageJitter time.Duration `mapstructure:"page_jitter"`
		PageNull   time.Duration `mapstructure:"page_null_ttl"`
		DiffTTL    time.Duration `mapstructure:"diff_ttl"`
		DiffJitter time.Duration `mapstructure:"diff_jitter"`
	} `mapstructure:"cache"`
	Title struct {
		CapitalLinks bool `mapstructure:"capital_links"`
	} `mapstructure:"title"`
	Content struct {
		FallbackToText bool `mapstructure:"fallback_to_text"`
		ContextLines   int  `mapstructure:"context_lines"`
	} `mapstructure:"content"`
	CORS struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"cors"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("running.port", 3004)
	v.SetDefault("running.mode", "release")

	v.SetDefault("mysql.max_open_conns", 20)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("mysql.auto_migrate", false)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addrs", []string{"127.0.0.1:6379"})

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "diff-views")

	v.SetDefault("dispatcher.queue_size", 10_000)
	v.SetDefault("dispatcher.workers", 4)
	v.SetDefault("dispatcher.max_in_flight", 4)
	v.SetDefault("dispatcher.max_retry", 3)
	v.SetDefault("dispatcher.base_backoff", 50*time.Millisecond)
	v.SetDefault("dispatcher.max_backoff", time.Second)

	v.SetDefault("cache.page_ttl", 30*time.Second)
	v.SetDefault("cache.page_jitter", 10*time.Second)
	v.SetDefault("cache.page_null_ttl", 5*time.Second)
	v.SetDefault("cache.diff_ttl", 24*time.Hour)
	v.SetDefault("cache.diff_jitter", time.Hour)

	v.SetDefault("title.capital_links", true)
	v.SetDefault("content.fallback_to_text", false)
	v.SetDefault("content.context_lines", 2)
	v.SetDefault("cors.enabled", false)
}

// Load 读取 compareConfig.yaml；找不到文件时只用默认值和环境变量。
// 环境变量形如 COMPARE_MYSQL_DSN、COMPARE_KAFKA_ENABLED。
func Load(paths ...string) (*CompareConfig, error) {
	if len(paths) == 0 {
		paths = defaultPaths
	}
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	// AutomaticEnv 只对已知 key 生效，没有默认值的 key 需要显式绑定
	for _, key := range []string{"mysql.dsn", "redis.password", "kafka.brokers"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg = &CompareConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
