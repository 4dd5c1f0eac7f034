package configuration

import (
	"context"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter/memory"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter/postgres"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter/vault"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/config"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/identitymap"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/metrics"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/repository"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/template"
)

// Repositories hands out one repository per entity over a shared template.
type Repositories struct {
	mapping  *mapping.Context
	template *template.Template
	log      logger.Logger

	mu    sync.Mutex
	repos map[string]*repository.Repository
}

// New wires the adapter selected by cfg.Repository.Adapter. A nil registerer
// disables metrics.
func New(ctx context.Context, cfg config.Config, log logger.Logger, registerer prometheus.Registerer) (*Repositories, error) {
	mappingContext := mapping.NewContext(mapping.WithDefaultBackend(cfg.Vault.Backend))

	collector := metrics.NewNopCollector()
	if registerer != nil {
		prom, err := metrics.NewPrometheusCollector(registerer)
		if err != nil {
			return nil, errors.Wrap(err, "unable to register metrics")
		}
		collector = prom
	}

	kv, err := newAdapter(ctx, cfg, log, collector)
	if err != nil {
		return nil, err
	}

	ids, err := template.NewIdentifierGenerator(cfg.Repository.IDGenerator)
	if err != nil {
		return nil, closeOnError(kv, err)
	}
	isolation, err := identitymap.ParseIsolationLevel(cfg.Repository.Isolation)
	if err != nil {
		return nil, closeOnError(kv, err)
	}

	tpl := template.New(kv, mappingContext,
		template.WithIdentifierGenerator(ids),
		template.WithCache(cfg.Repository.CacheSize, isolation),
		template.WithMetrics(collector),
		template.WithLogger(log.Component("template")),
	)
	log.Info().
		Str("adapter", cfg.Repository.Adapter).
		Str("id_generator", cfg.Repository.IDGenerator).
		Int("cache_size", cfg.Repository.CacheSize).
		Msg("repositories configured")

	return &Repositories{
		mapping:  mappingContext,
		template: tpl,
		log:      log,
		repos:    make(map[string]*repository.Repository),
	}, nil
}

func newAdapter(ctx context.Context, cfg config.Config, log logger.Logger, collector metrics.Collector) (adapter.KeyValueAdapter, error) {
	switch strings.ToLower(cfg.Repository.Adapter) {
	case config.AdapterMemory:
		return memory.New(), nil
	case config.AdapterPostgres:
		pg, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConnections, cfg.Postgres.ConnectTimeout,
			postgres.WithTable(cfg.Postgres.Table),
			postgres.WithLogger(log.Component("postgres")),
		)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, closeOnError(pg, err)
		}
		return pg, nil
	case config.AdapterVault:
		clientConfig := vault.ClientConfig{
			Address:       cfg.Vault.Address,
			Token:         cfg.Vault.Token,
			AuthMethod:    cfg.Vault.AuthMethod,
			RoleID:        cfg.Vault.RoleID,
			SecretID:      cfg.Vault.SecretID,
			Namespace:     cfg.Vault.Namespace,
			Timeout:       cfg.Vault.Timeout,
			MaxRetries:    cfg.Vault.MaxRetries,
			TLSSkipVerify: cfg.Vault.TLSSkipVerify,
		}
		client, transport, err := vault.NewClient(clientConfig, log)
		if err != nil {
			return nil, err
		}
		transport.OnRequestEnded().Attach(func(e vault.RequestEndedEvent) error {
			status := 0
			if e.RequestView.Status != nil {
				status = *e.RequestView.Status
			}
			collector.ObserveRequest(e.RequestView.Method, status, *e.RequestView.ResponseTime)
			return nil
		})
		if err := vault.Authenticate(ctx, client, client.Logical(), clientConfig); err != nil {
			return nil, err
		}
		return vault.NewFromClient(client,
			vault.WithKVVersion(vault.KVVersion(cfg.Vault.KVVersion)),
			vault.WithLogger(log.Component("vault")),
		), nil
	default:
		return nil, errors.Errorf("unknown repository adapter %q", cfg.Repository.Adapter)
	}
}

// Register maps an entity to its Vault location.
func (r *Repositories) Register(secret mapping.Secret) error {
	return r.mapping.Register(secret)
}

func (r *Repositories) Template() *template.Template {
	return r.template
}

func (r *Repositories) Repository(entity string) *repository.Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	repo, ok := r.repos[entity]
	if !ok {
		repo = repository.New(r.template, entity, repository.WithLogger(r.log.Component("repository")))
		r.repos[entity] = repo
	}
	return repo
}

func (r *Repositories) Close() error {
	if err := r.template.Destroy(); err != nil {
		return err
	}
	return r.template.Close()
}

func closeOnError(kv adapter.KeyValueAdapter, err error) error {
	if closeErr := kv.Close(); closeErr != nil {
		return multierror.Append(err, closeErr)
	}
	return err
}
