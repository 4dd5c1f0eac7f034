package vault

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
)

// ClientConfig holds the connection settings of a Vault client.
type ClientConfig struct {
	Address       string
	Token         string
	AuthMethod    string
	RoleID        string
	SecretID      string
	Namespace     string
	Timeout       time.Duration
	MaxRetries    int
	TLSSkipVerify bool
}

// NewClient builds an API client whose HTTP traffic goes through an
// ObservableTransport, which is returned for subscribing to request events.
func NewClient(cfg ClientConfig, log logger.Logger) (*api.Client, *ObservableTransport, error) {
	vaultConfig := api.DefaultConfig()
	if vaultConfig.Error != nil {
		return nil, nil, errors.Wrap(vaultConfig.Error, "unable to read default vault configuration")
	}
	vaultConfig.Address = cfg.Address
	vaultConfig.MaxRetries = cfg.MaxRetries
	if cfg.Timeout > 0 {
		vaultConfig.Timeout = cfg.Timeout
	}
	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&api.TLSConfig{Insecure: true}); err != nil {
			return nil, nil, errors.Wrap(err, "unable to configure vault TLS")
		}
	}

	transport := NewObservableTransport(vaultConfig.HttpClient.Transport, log.Component("vault"))
	vaultConfig.HttpClient.Transport = transport

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to create vault client")
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return client, transport, nil
}

// TokenSetter is the part of *api.Client that Authenticate changes.
type TokenSetter interface {
	SetToken(v string)
}

// Authenticate logs in according to cfg.AuthMethod. Token auth only sets
// the configured token.
func Authenticate(ctx context.Context, client TokenSetter, logical Logical, cfg ClientConfig) error {
	switch strings.ToLower(cfg.AuthMethod) {
	case "", "token":
		if cfg.Token == "" {
			return errors.New("token is required for token auth method")
		}
		client.SetToken(cfg.Token)
		return nil
	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return errors.New("role_id and secret_id are required for approle auth method")
		}
		resp, err := logical.WriteWithContext(ctx, "auth/approle/login", map[string]any{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return errors.Wrap(err, "failed to authenticate via approle")
		}
		if resp == nil || resp.Auth == nil {
			return errors.New("no auth info returned from vault")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil
	default:
		return errors.Errorf("unsupported auth method %q", cfg.AuthMethod)
	}
}
