package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/option"
)

var ErrNullBody = errors.New("document: body must not be nil")

type Body = orderedmap.OrderedMap[string, any]

// SecretDocument is a secret as stored under one path: an optional
// identifier and an insertion-ordered body of fields.
type SecretDocument struct {
	id   option.Option[string]
	body *Body
}

func New() *SecretDocument {
	return &SecretDocument{
		id:   option.Nothing[string](),
		body: orderedmap.New[string, any](),
	}
}

func NewWithID(id string) *SecretDocument {
	d := New()
	d.id = option.Some(id)
	return d
}

// NewWithBody adopts body without copying it.
func NewWithBody(id option.Option[string], body *Body) (*SecretDocument, error) {
	if body == nil {
		return nil, ErrNullBody
	}
	return &SecretDocument{id: id, body: body}, nil
}

// From builds a document from a backend response. Keys are inserted in
// sorted order since map iteration order is unspecified.
func From(id string, data map[string]any) (*SecretDocument, error) {
	if data == nil {
		return nil, ErrNullBody
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := NewWithID(id)
	for _, k := range keys {
		d.body.Set(k, data[k])
	}
	return d, nil
}

func (d *SecretDocument) ID() option.Option[string] {
	return d.id
}

func (d *SecretDocument) SetID(id string) {
	d.id = option.Some(id)
}

func (d *SecretDocument) Body() *Body {
	return d.body
}

func (d *SecretDocument) Get(key string) (any, bool) {
	return d.body.Get(key)
}

// GetString returns the field in string form.
func (d *SecretDocument) GetString(key string) (string, bool) {
	v, ok := d.body.Get(key)
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Put sets a field, keeping the position of an existing key.
func (d *SecretDocument) Put(key string, value any) *SecretDocument {
	d.body.Set(key, value)
	return d
}

func (d *SecretDocument) Remove(key string) (any, bool) {
	return d.body.Delete(key)
}

func (d *SecretDocument) Keys() []string {
	keys := make([]string, 0, d.body.Len())
	for pair := d.body.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func (d *SecretDocument) Len() int {
	return d.body.Len()
}

// ToMap flattens the body for the backend write APIs.
func (d *SecretDocument) ToMap() map[string]any {
	m := make(map[string]any, d.body.Len())
	for pair := d.body.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value
	}
	return m
}

// Clone copies the body shallowly.
func (d *SecretDocument) Clone() *SecretDocument {
	body := orderedmap.New[string, any](d.body.Len())
	for pair := d.body.Oldest(); pair != nil; pair = pair.Next() {
		body.Set(pair.Key, pair.Value)
	}
	return &SecretDocument{id: d.id, body: body}
}

// Equal compares identifiers and bodies, including field order.
func (d *SecretDocument) Equal(other *SecretDocument) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.id != other.id || d.body.Len() != other.body.Len() {
		return false
	}
	a, b := d.body.Oldest(), other.body.Oldest()
	for ; a != nil && b != nil; a, b = a.Next(), b.Next() {
		if a.Key != b.Key || fmt.Sprint(a.Value) != fmt.Sprint(b.Value) {
			return false
		}
	}
	return true
}

func (d *SecretDocument) String() string {
	fields := make([]string, 0, d.body.Len())
	for pair := d.body.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, pair.Key+"=***")
	}
	return fmt.Sprintf("SecretDocument(id=%s, body={%s})", d.id, strings.Join(fields, ", "))
}

type wireDocument struct {
	ID   *string `json:"id,omitempty"`
	Body *Body   `json:"body"`
}

func (d *SecretDocument) MarshalJSON() ([]byte, error) {
	w := wireDocument{Body: d.body}
	if id, ok := d.id.Get(); ok {
		w.ID = &id
	}
	return json.Marshal(w)
}

func (d *SecretDocument) UnmarshalJSON(data []byte) error {
	w := wireDocument{Body: orderedmap.New[string, any]()}
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Wrap(err, "document: malformed JSON")
	}
	if w.Body == nil {
		return ErrNullBody
	}
	d.id = option.FromPointer(w.ID)
	d.body = w.Body
	return nil
}
