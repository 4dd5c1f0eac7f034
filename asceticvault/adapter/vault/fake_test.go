package vault

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"
)

// fakeLogical keeps written payloads by path. KV v2 metadata paths address
// the same entries as their data paths.
type fakeLogical struct {
	mu      sync.Mutex
	entries map[string]map[string]any
	calls   []string
	err     error
}

func newFakeLogical() *fakeLogical {
	return &fakeLogical{entries: make(map[string]map[string]any)}
}

func normalize(p string) string {
	return strings.Replace(p, "/metadata/", "/data/", 1)
}

func (f *fakeLogical) record(op, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+" "+p)
	return f.err
}

func (f *fakeLogical) ReadWithContext(_ context.Context, p string) (*api.Secret, error) {
	if err := f.record("read", p); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[normalize(p)]
	if !ok {
		return nil, nil
	}
	return &api.Secret{Data: data}, nil
}

func (f *fakeLogical) WriteWithContext(_ context.Context, p string, data map[string]any) (*api.Secret, error) {
	if err := f.record("write", p); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[normalize(p)] = data
	return &api.Secret{}, nil
}

func (f *fakeLogical) DeleteWithContext(_ context.Context, p string) (*api.Secret, error) {
	if err := f.record("delete", p); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, normalize(p))
	return nil, nil
}

func (f *fakeLogical) ListWithContext(_ context.Context, p string) (*api.Secret, error) {
	if err := f.record("list", p); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := normalize(p + "/")
	seen := map[string]bool{}
	for key := range f.entries {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		if head, _, nested := strings.Cut(rest, "/"); nested {
			seen[head+"/"] = true
		} else {
			seen[rest] = true
		}
	}
	if len(seen) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	keys := make([]any, len(names))
	for i, k := range names {
		keys[i] = k
	}
	return &api.Secret{Data: map[string]any{"keys": keys}}, nil
}
