package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/configuration"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

type invocation struct {
	entity string
	method string
	sort   query.Sort
	args   []any
}

// result holds the outcome of one derived query; only the field matching
// action is set.
type result struct {
	action    query.Action
	documents []*document.SecretDocument
	number    int
	exists    bool
}

func execute(ctx context.Context, repos *configuration.Repositories, inv invocation) (result, error) {
	tree, err := query.ParsePartTree(inv.method)
	if err != nil {
		return result{}, err
	}
	repo := repos.Repository(inv.entity)
	res := result{action: tree.Action()}
	switch tree.Action() {
	case query.ActionCount:
		res.number, err = repo.CountBy(ctx, inv.method, inv.args...)
	case query.ActionExists:
		res.exists, err = repo.ExistsBy(ctx, inv.method, inv.args...)
	case query.ActionDelete:
		res.number, err = repo.DeleteBy(ctx, inv.method, inv.args...)
	default:
		res.documents, err = repo.Find(ctx, inv.method, inv.sort, inv.args...)
	}
	return res, err
}

// write prints found documents as JSON lines and scalar results on one line.
func (r result) write(w io.Writer) error {
	switch r.action {
	case query.ActionCount, query.ActionDelete:
		_, err := fmt.Fprintln(w, r.number)
		return err
	case query.ActionExists:
		_, err := fmt.Fprintln(w, r.exists)
		return err
	}
	enc := json.NewEncoder(w)
	for _, doc := range r.documents {
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}

func (r result) payload() any {
	switch r.action {
	case query.ActionCount:
		return map[string]int{"count": r.number}
	case query.ActionDelete:
		return map[string]int{"deleted": r.number}
	case query.ActionExists:
		return map[string]bool{"exists": r.exists}
	}
	if r.documents == nil {
		return []*document.SecretDocument{}
	}
	return r.documents
}

// parseValues turns command-line values into query parameters. A value
// containing a comma becomes a list.
func parseValues(raw []string) []any {
	values := make([]any, 0, len(raw))
	for _, v := range raw {
		if strings.Contains(v, ",") {
			values = append(values, strings.Split(v, ","))
			continue
		}
		values = append(values, v)
	}
	return values
}
