package config

import "time"

const (
	AdapterVault    = "vault"
	AdapterMemory   = "memory"
	AdapterPostgres = "postgres"

	GeneratorUUID = "uuid"
	GeneratorULID = "ulid"

	AuthToken   = "token"
	AuthAppRole = "approle"
)

type (
	Config struct {
		App        App        `json:"app"`
		Vault      Vault      `json:"vault"`
		Repository Repository `json:"repository"`
		Postgres   Postgres   `json:"postgres"`
		Logging    Logging    `json:"logging"`
		Metrics    Metrics    `json:"metrics"`
	}

	App struct {
		ServiceName string `envconfig:"APP_SERVICE_NAME" default:"ascetic-vault" json:"service_name"`
	}

	Vault struct {
		Address       string        `envconfig:"VAULT_ADDRESS" default:"http://127.0.0.1:8200" json:"address"`
		Token         string        `envconfig:"VAULT_TOKEN" default:"" json:"-"`
		AuthMethod    string        `envconfig:"VAULT_AUTH_METHOD" default:"token" json:"auth_method"`
		RoleID        string        `envconfig:"VAULT_ROLE_ID" default:"" json:"-"`
		SecretID      string        `envconfig:"VAULT_SECRET_ID" default:"" json:"-"`
		Namespace     string        `envconfig:"VAULT_NAMESPACE" default:"" json:"namespace,omitempty"`
		Timeout       time.Duration `envconfig:"VAULT_TIMEOUT" default:"30s" json:"timeout"`
		MaxRetries    int           `envconfig:"VAULT_MAX_RETRIES" default:"2" json:"max_retries"`
		TLSSkipVerify bool          `envconfig:"VAULT_TLS_SKIP_VERIFY" default:"false" json:"tls_skip_verify"`
		Backend       string        `envconfig:"VAULT_BACKEND" default:"secret" json:"backend"`
		KVVersion     int           `envconfig:"VAULT_KV_VERSION" default:"2" json:"kv_version"`
	}

	Repository struct {
		Adapter     string `envconfig:"REPOSITORY_ADAPTER" default:"vault" json:"adapter"`
		IDGenerator string `envconfig:"REPOSITORY_ID_GENERATOR" default:"uuid" json:"id_generator"`
		CacheSize   int    `envconfig:"REPOSITORY_CACHE_SIZE" default:"0" json:"cache_size"`
		Isolation   string `envconfig:"REPOSITORY_CACHE_ISOLATION" default:"serializable" json:"cache_isolation"`
	}

	Postgres struct {
		DSN            string        `envconfig:"POSTGRES_DSN" default:"" json:"-"`
		Table          string        `envconfig:"POSTGRES_TABLE" default:"secret_documents" json:"table"`
		MaxConnections int32         `envconfig:"POSTGRES_MAX_CONNECTIONS" default:"10" json:"max_connections"`
		ConnectTimeout time.Duration `envconfig:"POSTGRES_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
	}

	Logging struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info" json:"level"`
		Format string `envconfig:"LOG_FORMAT" default:"console" json:"format"`
	}

	Metrics struct {
		Enabled           bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
		DefaultCollectors bool `envconfig:"METRICS_DEFAULT_COLLECTORS" default:"false" json:"default_collectors"`
	}
)
