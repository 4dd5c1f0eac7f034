package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Init reads the configuration from the environment and validates it.
func Init() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "unable to parse configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch strings.ToLower(c.Repository.Adapter) {
	case AdapterVault:
		result = multierror.Append(result, c.Vault.validate()...)
	case AdapterMemory:
	case AdapterPostgres:
		if c.Postgres.DSN == "" {
			result = multierror.Append(result, errors.New("POSTGRES_DSN is required for the postgres adapter"))
		}
		if !tableName.MatchString(c.Postgres.Table) {
			result = multierror.Append(result, fmt.Errorf("POSTGRES_TABLE %q is not a valid identifier", c.Postgres.Table))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("REPOSITORY_ADAPTER %q is not one of vault, memory, postgres", c.Repository.Adapter))
	}

	switch strings.ToLower(c.Repository.IDGenerator) {
	case GeneratorUUID, GeneratorULID:
	default:
		result = multierror.Append(result, fmt.Errorf("REPOSITORY_ID_GENERATOR %q is not one of uuid, ulid", c.Repository.IDGenerator))
	}
	if c.Repository.CacheSize < 0 {
		result = multierror.Append(result, errors.New("REPOSITORY_CACHE_SIZE must not be negative"))
	}

	return result.ErrorOrNil()
}

func (v Vault) validate() []error {
	var errs []error
	if v.Address == "" {
		errs = append(errs, errors.New("VAULT_ADDRESS is required"))
	}
	switch strings.ToLower(v.AuthMethod) {
	case AuthToken:
		if v.Token == "" {
			errs = append(errs, errors.New("VAULT_TOKEN is required for token auth"))
		}
	case AuthAppRole:
		if v.RoleID == "" || v.SecretID == "" {
			errs = append(errs, errors.New("VAULT_ROLE_ID and VAULT_SECRET_ID are required for approle auth"))
		}
	default:
		errs = append(errs, fmt.Errorf("VAULT_AUTH_METHOD %q is not one of token, approle", v.AuthMethod))
	}
	if v.KVVersion != 1 && v.KVVersion != 2 {
		errs = append(errs, fmt.Errorf("VAULT_KV_VERSION %d is not 1 or 2", v.KVVersion))
	}
	if strings.Trim(v.Backend, "/") == "" {
		errs = append(errs, errors.New("VAULT_BACKEND is required"))
	}
	if v.MaxRetries < 0 {
		errs = append(errs, errors.New("VAULT_MAX_RETRIES must not be negative"))
	}
	return errs
}
