package mapping

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
)

const DefaultBackend = "secret"

var ErrEntityNotRegistered = errors.New("mapping: entity not registered")

// Secret binds an entity name to the backend mount and path its records
// live under.
type Secret struct {
	Entity  string
	Backend string
	Path    string
}

// Keyspace is the storage location of one entity: mount plus path.
type Keyspace struct {
	Backend string
	Path    string
}

func (k Keyspace) String() string {
	if k.Path == "" {
		return k.Backend
	}
	return k.Backend + "/" + k.Path
}

// Context is the registry of entity mappings.
type Context struct {
	mu             sync.RWMutex
	defaultBackend string
	secrets        map[string]Secret
}

type Option func(*Context)

func WithDefaultBackend(backend string) Option {
	return func(c *Context) {
		c.defaultBackend = strings.Trim(backend, "/")
	}
}

func NewContext(opts ...Option) *Context {
	c := &Context{
		defaultBackend: DefaultBackend,
		secrets:        make(map[string]Secret),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds or replaces an entity mapping. Empty fields take defaults.
func (c *Context) Register(secret Secret) error {
	if secret.Entity == "" {
		return errors.New("mapping: entity name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secrets[secret.Entity] = c.withDefaults(secret)
	return nil
}

// Lookup returns the registered mapping of entity.
func (c *Context) Lookup(entity string) (Secret, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	secret, ok := c.secrets[entity]
	if !ok {
		return Secret{}, errors.Wrapf(ErrEntityNotRegistered, "entity %q", entity)
	}
	return secret, nil
}

// Keyspace resolves the location of entity. Unregistered entities are
// stored under the default backend at their lower-cased name.
func (c *Context) Keyspace(entity string) Keyspace {
	c.mu.RLock()
	secret, ok := c.secrets[entity]
	c.mu.RUnlock()
	if !ok {
		secret = c.withDefaults(Secret{Entity: entity})
	}
	return Keyspace{Backend: secret.Backend, Path: secret.Path}
}

func (c *Context) Entities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entities := make([]string, 0, len(c.secrets))
	for entity := range c.secrets {
		entities = append(entities, entity)
	}
	return entities
}

func (c *Context) withDefaults(secret Secret) Secret {
	secret.Backend = strings.Trim(secret.Backend, "/")
	secret.Path = strings.Trim(secret.Path, "/")
	if secret.Backend == "" {
		secret.Backend = c.defaultBackend
	}
	if secret.Path == "" {
		secret.Path = strings.ToLower(secret.Entity)
	}
	return secret
}
