package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Binance struct {
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
		Testnet   bool   `yaml:"testnet"`
	} `yaml:"binance"`
	CoinGecko struct {
		BaseURL string            `yaml:"base_url"`
		Timeout time.Duration     `yaml:"timeout"`
		CoinIDs map[string]string `yaml:"coin_ids"` // symbol -> coingecko id
	} `yaml:"coingecko"`
	Dune struct {
		BaseURL         string        `yaml:"base_url"`
		APIKey          string        `yaml:"api_key"`
		WalletsQueryID  string        `yaml:"wallets_query_id"`
		AnalysisQueryID string        `yaml:"analysis_query_id"`
		Timeout         time.Duration `yaml:"timeout"`
		WalletLimit     int           `yaml:"wallet_limit"`
	} `yaml:"dune"`
	Strategies struct {
		Symbols      []string      `yaml:"symbols"`
		FetchTimeout time.Duration `yaml:"fetch_timeout"`
		Retention    time.Duration `yaml:"retention"`
		OpenInterest struct {
			Enabled       bool          `yaml:"enabled"`
			Interval      time.Duration `yaml:"interval"`
			PeakWindow    time.Duration `yaml:"peak_window"`
			TroughWindow  time.Duration `yaml:"trough_window"`
			PeakFrac      float64       `yaml:"peak_frac"`
			BottomFrac    float64       `yaml:"bottom_frac"`
			SuperHighFrac float64       `yaml:"super_high_frac"`
		} `yaml:"open_interest"`
		HeatZone struct {
			Enabled  bool          `yaml:"enabled"`
			Interval time.Duration `yaml:"interval"`
			Depth    int           `yaml:"depth"`
		} `yaml:"heatzone"`
		MoonPhase struct {
			Enabled  bool          `yaml:"enabled"`
			Interval time.Duration `yaml:"interval"`
		} `yaml:"moon_phase"`
		SmartMoney struct {
			Enabled  bool          `yaml:"enabled"`
			Interval time.Duration `yaml:"interval"`
		} `yaml:"smart_money"`
	} `yaml:"strategies"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.Binance.APISecret = v
	}
	if v := os.Getenv("DUNE_API_KEY"); v != "" {
		c.Dune.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Strategies.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}

	return c, nil
}

// Validate checks required fields and fills safe defaults.
func (c *Config) Validate() error {
	if len(c.Strategies.Symbols) == 0 {
		return fmt.Errorf("strategies.symbols is required")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "lunarpulse"
	}

	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	st := &c.Strategies
	if st.FetchTimeout <= 0 {
		st.FetchTimeout = 10 * time.Second
	}
	if st.Retention <= 0 {
		st.Retention = 90 * 24 * time.Hour
	}
	if st.OpenInterest.Interval <= 0 {
		st.OpenInterest.Interval = time.Hour
	}
	if st.OpenInterest.PeakWindow <= 0 {
		st.OpenInterest.PeakWindow = 24 * time.Hour
	}
	if st.OpenInterest.TroughWindow <= 0 {
		st.OpenInterest.TroughWindow = 90 * 24 * time.Hour
	}
	if st.OpenInterest.PeakFrac <= 0 {
		st.OpenInterest.PeakFrac = 0.95
	}
	if st.OpenInterest.BottomFrac <= 0 {
		st.OpenInterest.BottomFrac = 0.05
	}
	if st.OpenInterest.SuperHighFrac <= 0 {
		st.OpenInterest.SuperHighFrac = 1.10
	}
	if st.HeatZone.Interval <= 0 {
		st.HeatZone.Interval = time.Minute
	}
	if st.HeatZone.Depth <= 0 {
		st.HeatZone.Depth = 100
	}
	if st.MoonPhase.Interval <= 0 {
		st.MoonPhase.Interval = time.Hour
	}
	if st.SmartMoney.Interval <= 0 {
		st.SmartMoney.Interval = 24 * time.Hour
	}
	if c.Dune.WalletLimit <= 0 {
		c.Dune.WalletLimit = 10
	}
	return nil
}
