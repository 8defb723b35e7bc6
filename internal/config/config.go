package config

import (
	"time"

	"github.com/blues/cmns/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 链连接配置
type ChainConfig struct {
	ChainId         int64    `mapstructure:"chain_id"`         // 链ID (BSC主网56, 测试网97)
	RpcUrl          string   `mapstructure:"rpc_url"`          // HTTP RPC节点URL (网关使用)
	WsUrls          []string `mapstructure:"ws_urls"`          // WebSocket节点轮换列表 (监听器使用)
	ContractAddress string   `mapstructure:"contract_address"` // 会员合约地址
	ABIPath         string   `mapstructure:"abi_path"`         // ABI文件路径
	PrivateKey      string   `mapstructure:"private_key"`      // 交易签名私钥
	HealthInterval  int      `mapstructure:"health_interval"`  // 健康检查间隔 (秒)
	ReconnectDelay  int      `mapstructure:"reconnect_delay"`  // 重连退避时间 (秒)
	RequestTimeout  int      `mapstructure:"request_timeout"`  // 单次RPC超时 (秒)
	MaxPlanProbe    int      `mapstructure:"max_plan_probe"`   // 同步计划快照时最多探测的计划ID
}

type TaskConfig struct {
	PlanSyncInterval int `mapstructure:"plan_sync_interval"` // 计划快照同步间隔 (秒)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// HealthCheckInterval 健康检查周期
func (c ChainConfig) HealthCheckInterval() time.Duration {
	return time.Duration(c.HealthInterval) * time.Second
}

// ReconnectBackoff 重连退避时间
func (c ChainConfig) ReconnectBackoff() time.Duration {
	return time.Duration(c.ReconnectDelay) * time.Second
}

// Timeout 单次RPC调用超时
func (c ChainConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/cmns")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "crypto_membership")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.chain_id", 97)
	viper.SetDefault("chain.rpc_url", "https://bsc-testnet-dataseed.bnbchain.org")
	viper.SetDefault("chain.abi_path", "config/contract_abi.json")
	viper.SetDefault("chain.health_interval", 30)
	viper.SetDefault("chain.reconnect_delay", 5)
	viper.SetDefault("chain.request_timeout", 15)
	viper.SetDefault("chain.max_plan_probe", 16)
	viper.SetDefault("task.plan_sync_interval", 600)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
