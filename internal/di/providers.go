package di

import (
	"context"
	"fmt"
	"time"

	"LunarPulse/internal/domain/repository"
	ws "LunarPulse/internal/handler/ws"
	mid "LunarPulse/internal/middleware"
	internalrepo "LunarPulse/internal/repository"
	"LunarPulse/internal/service/marketdata"
	"LunarPulse/internal/services/engine"
	"LunarPulse/internal/usecase"
	"LunarPulse/pkg/cache"
	pkgch "LunarPulse/pkg/clickhouse"
	"LunarPulse/pkg/config"
	pkgkafka "LunarPulse/pkg/kafka"
	applogger "LunarPulse/pkg/logger"
	"LunarPulse/pkg/metrics"
	"LunarPulse/pkg/server"
)

// ProvideLogger creates the application logger. When Kafka is enabled with a
// log topic, repeated warnings and errors are aggregated and shipped there.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Service:        "lunarpulse",
			Publisher:      kafkaLogPublisher{producer},
		})
	}
	return l, nil
}

// kafkaLogPublisher adapts the producer to the log collector's interface.
type kafkaLogPublisher struct {
	producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// signals schema exists. Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SignalSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoTopicCreation(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideCache creates the shared cache service: a layered memory+Redis
// cache when Redis is enabled, an in-process cache otherwise so state
// persistence always has a backend.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix("lunarpulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(c), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideDataSource creates the Binance futures market data source.
func ProvideDataSource(cfg *config.Config) repository.DataSource {
	return marketdata.NewBinanceSource(cfg.Binance.APIKey, cfg.Binance.APISecret, cfg.Binance.Testnet)
}

// ProvideWalletSource creates the Dune wallet source, or nil without a key.
func ProvideWalletSource(cfg *config.Config) repository.WalletSource {
	if cfg.Dune.APIKey == "" {
		return nil
	}
	return marketdata.NewDuneClient(
		cfg.Dune.BaseURL,
		cfg.Dune.APIKey,
		cfg.Dune.WalletsQueryID,
		cfg.Dune.AnalysisQueryID,
		cfg.Dune.Timeout,
	)
}

// ProvideCoinGecko creates the CoinGecko client used for market cap context.
func ProvideCoinGecko(cfg *config.Config) *marketdata.CoinGeckoClient {
	if len(cfg.CoinGecko.CoinIDs) == 0 {
		return nil
	}
	return marketdata.NewCoinGeckoClient(cfg.CoinGecko.BaseURL, cfg.CoinGecko.Timeout)
}

// ProvideObservationStore creates the shared observation history.
func ProvideObservationStore(cfg *config.Config) *engine.ObservationStore {
	return engine.NewObservationStore(engine.WithRetention(cfg.Strategies.Retention))
}

// ProvideHotZoneAccumulator creates the shared hot zone state.
func ProvideHotZoneAccumulator() *engine.HotZoneAccumulator {
	return engine.NewHotZoneAccumulator()
}

// ProvideStateStore creates the strategy state persistence layer.
func ProvideStateStore(c cache.Service) repository.StateStore {
	return internalrepo.NewRedisStateStore(c)
}

// ProvideHub creates the WebSocket broadcast hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideSink composes the configured signal backends into one sink.
func ProvideSink(chClient *pkgch.Client, producer *pkgkafka.Producer, hub *ws.Hub, l *applogger.Logger, cfg *config.Config) repository.Sink {
	var sinks []repository.Sink
	if chClient != nil {
		store := internalrepo.NewCHSignalStore(chClient)
		store.SetLogger(l)
		sinks = append(sinks, store)
	}
	if producer != nil {
		sinks = append(sinks, internalrepo.NewKafkaSink(producer, cfg.Kafka.Topic))
	}
	sinks = append(sinks, hub)
	return internalrepo.NewMultiSink(sinks...)
}

// ProvideSignalStore exposes the ClickHouse read side, or nil when disabled.
func ProvideSignalStore(chClient *pkgch.Client, l *applogger.Logger) repository.SignalStore {
	if chClient == nil {
		return nil
	}
	store := internalrepo.NewCHSignalStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvidePipeline creates the pipeline between strategies and sinks.
func ProvidePipeline(sink repository.Sink, m repository.Metrics) *mid.SignalPipeline {
	return mid.NewSignalPipeline(sink, m,
		mid.WithBufferSize(2000),
		mid.WithDedupeWindow(time.Minute),
	)
}

// ProvideStrategies builds every enabled strategy.
func ProvideStrategies(
	cfg *config.Config,
	src repository.DataSource,
	wallets repository.WalletSource,
	gecko *marketdata.CoinGeckoClient,
	store *engine.ObservationStore,
	acc *engine.HotZoneAccumulator,
	state repository.StateStore,
	c cache.Service,
	l *applogger.Logger,
) []usecase.Strategy {
	st := cfg.Strategies
	var out []usecase.Strategy

	if st.OpenInterest.Enabled {
		out = append(out, usecase.NewOpenInterestStrategy(src, store, gecko, cfg.CoinGecko.CoinIDs, c, usecase.OIStrategyConfig{
			Interval:     st.OpenInterest.Interval,
			PeakWindow:   st.OpenInterest.PeakWindow,
			TroughWindow: st.OpenInterest.TroughWindow,
			Thresholds: engine.OIThresholds{
				PeakFrac:      st.OpenInterest.PeakFrac,
				BottomFrac:    st.OpenInterest.BottomFrac,
				SuperHighFrac: st.OpenInterest.SuperHighFrac,
			},
		}, l))
	}
	if st.HeatZone.Enabled {
		out = append(out, usecase.NewHeatZoneStrategy(src, acc, state, st.HeatZone.Interval, st.HeatZone.Depth, l))
	}
	if st.MoonPhase.Enabled {
		out = append(out, usecase.NewMoonPhaseStrategy(src, state, gecko, cfg.CoinGecko.CoinIDs, st.MoonPhase.Interval, l))
	}
	if st.SmartMoney.Enabled && wallets != nil {
		out = append(out, usecase.NewSmartMoneyStrategy(wallets, cfg.Dune.WalletLimit, st.SmartMoney.Interval, l))
	}
	return out
}

// ProvideRunner creates the strategy runner.
func ProvideRunner(strategies []usecase.Strategy, cfg *config.Config, pipe *mid.SignalPipeline, m repository.Metrics, l *applogger.Logger) *usecase.Runner {
	return usecase.NewRunner(strategies, cfg.Strategies.Symbols, pipe, m, l, cfg.Strategies.FetchTimeout)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	runner *usecase.Runner,
	hub *ws.Hub,
	signals repository.SignalStore,
	sink repository.Sink,
	acc *engine.HotZoneAccumulator,
	store *engine.ObservationStore,
	state repository.StateStore,
	c cache.Service,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, runner, hub, signals, sink, acc, store, state, c, chClient)
}
