package template

import (
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
)

type EventType int

const (
	AfterGet EventType = iota
	AfterInsert
	AfterUpdate
	AfterDelete
	AfterDeleteAll
)

func (t EventType) String() string {
	switch t {
	case AfterGet:
		return "after-get"
	case AfterInsert:
		return "after-insert"
	case AfterUpdate:
		return "after-update"
	case AfterDelete:
		return "after-delete"
	case AfterDeleteAll:
		return "after-delete-all"
	default:
		return "unknown"
	}
}

// Event is published after a template operation succeeds. Document is nil
// for AfterDeleteAll.
type Event struct {
	Type     EventType
	Entity   string
	Keyspace mapping.Keyspace
	ID       string
	Document *document.SecretDocument
}
