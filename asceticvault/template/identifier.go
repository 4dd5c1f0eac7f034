package template

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

// IdentifierGenerator supplies identifiers for documents inserted without one.
type IdentifierGenerator interface {
	Generate() string
}

type GeneratorFunc func() string

func (f GeneratorFunc) Generate() string {
	return f()
}

var (
	UUIDGenerator IdentifierGenerator = GeneratorFunc(uuid.NewString)
	// ULIDGenerator produces lexicographically sortable identifiers.
	ULIDGenerator IdentifierGenerator = GeneratorFunc(func() string {
		return ulid.Make().String()
	})
)

func NewIdentifierGenerator(name string) (IdentifierGenerator, error) {
	switch strings.ToLower(name) {
	case "", "uuid":
		return UUIDGenerator, nil
	case "ulid":
		return ULIDGenerator, nil
	default:
		return nil, errors.Errorf("unknown identifier generator %q", name)
	}
}
