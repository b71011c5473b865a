package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tbt/internal/identity"
	"tbt/internal/payment"
	"tbt/internal/platform/alert"
	"tbt/internal/platform/config"
	"tbt/internal/platform/kafka"
	"tbt/internal/platform/postgres"
	redisclient "tbt/internal/platform/redis"
	profileservice "tbt/internal/profile/service"
	profilestore "tbt/internal/profile/store"
	ratelimitmetrics "tbt/internal/ratelimit/metrics"
	ratelimitmw "tbt/internal/ratelimit/middleware"
	ratelimitservice "tbt/internal/ratelimit/service"
	"tbt/internal/ratelimit/store/bucket"
	"tbt/internal/settlement/adapters"
	"tbt/internal/settlement/bridge"
	"tbt/internal/settlement/custody"
	settlementmetrics "tbt/internal/settlement/metrics"
	custodystore "tbt/internal/settlement/store/custody"
	"tbt/internal/settlement/store/outbox"
	"tbt/internal/settlement/worker"
	transfermetrics "tbt/internal/transfer/metrics"
	transferservice "tbt/internal/transfer/service"
	claimstore "tbt/internal/transfer/store/claim"
	workmetrics "tbt/internal/work/metrics"
	workservice "tbt/internal/work/service"
	"tbt/internal/work/store/transferlog"
	workstore "tbt/internal/work/store/work"
	"tbt/pkg/platform/tx"
)

const (
	certificateCacheSize = 1024
	certificateCacheTTL  = time.Minute
)

type profileStore interface {
	profileservice.Store
	bridge.ProfileReader
}

type workStore interface {
	workservice.WorkStore
	bridge.WorkReader
}

type outboxStore interface {
	bridge.Outbox
	worker.Store
}

// stores is the persistence set for one run: all Postgres or all memory.
type stores struct {
	profiles  profileStore
	works     workStore
	transfers workservice.TransferLog
	claims    transferservice.ClaimStore
	outbox    outboxStore
	keys      custody.KeyStore
	runner    tx.Runner
}

func memoryStores() stores {
	return stores{
		profiles:  profilestore.NewInMemory(),
		works:     workstore.NewInMemory(),
		transfers: transferlog.NewInMemory(),
		claims:    claimstore.NewInMemory(),
		outbox:    outbox.NewInMemory(),
		keys:      custodystore.NewInMemory(),
		runner:    tx.NewMemoryRunner(),
	}
}

func postgresStores(db *sql.DB, txTimeout time.Duration) stores {
	return stores{
		profiles:  profilestore.NewPostgres(db),
		works:     workstore.NewPostgres(db),
		transfers: transferlog.NewPostgres(db),
		claims:    claimstore.NewPostgres(db),
		outbox:    outbox.NewPostgres(db),
		keys:      custodystore.NewPostgres(db),
		runner:    tx.NewPostgresRunner(db, txTimeout),
	}
}

// app holds every long-lived component built from a Config.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	db       *sql.DB
	redis    *redisclient.Client
	producer *kafka.Producer

	profiles  *profileservice.Service
	works     *workservice.Service
	transfers *transferservice.Service
	limiter   *ratelimitmw.Middleware
	worker    *worker.Worker
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	st := memoryStores()
	if cfg.Database.Enabled() {
		a.db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err = postgres.Migrate(a.db, logger); err != nil {
			return nil, err
		}
		st = postgresStores(a.db, cfg.Database.TxTimeout)
		logger.Info("using postgres stores")
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	alerter := a.buildAlerter()
	settlement := settlementmetrics.New(a.registry)

	scheduler, err := bridge.NewScheduler(st.outbox,
		bridge.WithSchedulerLogger(logger),
		bridge.WithSchedulerMetrics(settlement),
	)
	if err != nil {
		return nil, err
	}

	a.profiles, err = profileservice.New(st.profiles, profileservice.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	a.works, err = workservice.New(st.works, st.transfers, a.profiles, scheduler, identity.NewGenerator(), st.runner,
		workservice.WithLogger(logger),
		workservice.WithMetrics(workmetrics.New(a.registry)),
		workservice.WithCertificateCache(certificateCacheSize, certificateCacheTTL),
		workservice.WithPendingTTL(cfg.Transfer.PendingTTL),
	)
	if err != nil {
		return nil, err
	}
	a.transfers, err = transferservice.New(st.claims, a.works, payment.New(cfg.Payment), scheduler, st.runner,
		transferservice.WithLogger(logger),
		transferservice.WithMetrics(transfermetrics.New(a.registry)),
		transferservice.WithFee(cfg.Transfer.FeeMinor, cfg.Transfer.FeeCurrency),
		transferservice.WithWarnings(scheduler),
		transferservice.WithAlerter(alerter),
	)
	if err != nil {
		return nil, err
	}

	if a.limiter, err = a.buildLimiter(ctx); err != nil {
		return nil, err
	}

	executor, err := a.buildBridge(ctx, st)
	if err != nil {
		return nil, err
	}
	a.worker, err = worker.New(st.outbox, executor,
		worker.WithLogger(logger),
		worker.WithMetrics(settlement),
		worker.WithAlerter(alerter),
		worker.WithPollInterval(cfg.Settlement.PollInterval),
		worker.WithBatchSize(cfg.Settlement.BatchSize),
		worker.WithMaxAttempts(cfg.Settlement.MaxAttempts),
		worker.WithActionTimeout(cfg.Settlement.Timeout),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) buildAlerter() alert.Alerter {
	channels := []alert.Alerter{alert.NewLogAlerter(a.logger)}
	if a.cfg.Alert.SlackWebhookURL != "" {
		channels = append(channels, alert.NewSlackAlerter(a.cfg.Alert.SlackWebhookURL))
	}
	if a.cfg.Alert.WebhookURL != "" {
		channels = append(channels, alert.NewWebhookAlerter(a.cfg.Alert.WebhookURL))
	}
	return alert.NewMultiAlerter(a.cfg.Alert.Cooldown, a.logger, alert.NewMetrics(a.registry), channels...)
}

// buildLimiter counts code attempts in Redis when configured, falling back to
// process memory while Redis is down. Without Redis it counts in memory only.
func (a *app) buildLimiter(ctx context.Context) (*ratelimitmw.Middleware, error) {
	opts := []ratelimitservice.Option{
		ratelimitservice.WithLogger(a.logger),
		ratelimitservice.WithMetrics(ratelimitmetrics.New(a.registry)),
		ratelimitservice.WithLimit(a.cfg.Transfer.CodeAttemptsPerMinute, time.Minute),
	}
	var primary ratelimitservice.Store = bucket.NewInMemoryBucketStore()

	client, err := redisclient.New(ctx, a.cfg.Redis)
	switch {
	case err != nil:
		a.logger.Warn("redis unavailable at startup, code attempts counted in process", "error", err)
	case client != nil:
		a.redis = client
		primary = bucket.NewRedisBucketStore(client, bucket.WithKeyPrefix(client.KeyPrefix()))
		opts = append(opts, ratelimitservice.WithFallback(bucket.NewInMemoryBucketStore()))
	}

	svc, err := ratelimitservice.New(primary, opts...)
	if err != nil {
		return nil, err
	}
	return ratelimitmw.New(svc, a.logger, ratelimitmw.WithDisabled(a.cfg.Transfer.DisableCodeLimiter)), nil
}

// buildBridge wires only the collaborators that are configured; the rest
// record their actions as skipped.
func (a *app) buildBridge(ctx context.Context, st stores) (*bridge.Bridge, error) {
	s := a.cfg.Settlement
	opts := []bridge.Option{
		bridge.WithLogger(a.logger),
		bridge.WithCertificateImages(s.ImageBaseURL),
	}

	if s.LedgerURL != "" {
		master, err := a.masterKey()
		if err != nil {
			return nil, err
		}
		ledger := adapters.NewLedger(s.LedgerURL, s.APIKey, s.Timeout)
		vault, err := custody.NewVault(st.keys, master,
			custody.WithLogger(a.logger),
			custody.WithRegistrar(ledger),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, bridge.WithLedger(ledger, vault))
	}
	if s.SMSURL != "" {
		opts = append(opts, bridge.WithSMS(adapters.NewSMSGateway(s.SMSURL, s.APIKey, s.Timeout)))
	}
	if s.EmailURL != "" {
		opts = append(opts, bridge.WithEmail(adapters.NewMailer(s.EmailURL, s.APIKey, s.Timeout)))
	}
	if a.cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(a.cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		a.producer = producer
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			a.logger.Warn("could not ensure transfer topic", "topic", producer.Topic(), "error", err)
		}
		opts = append(opts, bridge.WithEvents(producer))
	}

	return bridge.New(st.works, st.profiles, a.works, opts...)
}

// masterKey reads CUSTODY_MASTER_KEY. In memory mode a random key is
// acceptable because the keys it seals do not outlive the process.
func (a *app) masterKey() (custody.MasterKey, error) {
	if a.cfg.Settlement.CustodyMasterKey != "" {
		return custody.ParseMasterKey(a.cfg.Settlement.CustodyMasterKey)
	}
	if a.cfg.Database.Enabled() {
		return custody.MasterKey{}, fmt.Errorf("CUSTODY_MASTER_KEY is required when LEDGER_URL and DATABASE_URL are set")
	}
	a.logger.Warn("CUSTODY_MASTER_KEY not set, using an ephemeral key")
	return custody.RandomMasterKey()
}

func (a *app) health(ctx context.Context) error {
	if a.db != nil {
		if err := postgres.Health(ctx, a.db); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

func (a *app) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.health(ctx); err != nil {
		a.logger.WarnContext(ctx, "health check failed", "error", err)
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (a *app) close() {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
