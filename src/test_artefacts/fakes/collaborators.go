package fakes

import (
	"context"
	"sync"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// Authorizer libera tudo, exceto os nós negados. Conta as chamadas por nó.
type Authorizer struct {
	mu     sync.Mutex
	denied map[entities.AssetKey]bool
	calls  map[entities.AssetKey]int
}

func NewAuthorizer() *Authorizer {
	return &Authorizer{
		denied: make(map[entities.AssetKey]bool),
		calls:  make(map[entities.AssetKey]int),
	}
}

func (a *Authorizer) Deny(keys ...entities.AssetKey) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range keys {
		a.denied[key] = true
	}
}

func (a *Authorizer) CanAccess(_ context.Context, _ domain.Caller, node entities.AssetNode, _ domain.Action) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls[node.Key()]++
	return !a.denied[node.Key()]
}

func (a *Authorizer) Calls(key entities.AssetKey) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[key]
}

type MetadataStore struct {
	mu       sync.Mutex
	metadata map[string][]entities.AssetLinkMetadata
	Err      error
}

func NewMetadataStore() *MetadataStore {
	return &MetadataStore{metadata: make(map[string][]entities.AssetLinkMetadata)}
}

func (m *MetadataStore) Add(items ...entities.AssetLinkMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range items {
		m.metadata[item.LinkID] = append(m.metadata[item.LinkID], item)
	}
}

func (m *MetadataStore) For(linkID string) []entities.AssetLinkMetadata {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metadata[linkID]
}

func (m *MetadataStore) DeleteAll(_ context.Context, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	delete(m.metadata, linkID)
	return nil
}

type EventPublisher struct {
	mu     sync.Mutex
	events []domain.LinkEvent
	Err    error
}

func (p *EventPublisher) PublishLinkEvent(_ context.Context, event domain.LinkEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Err != nil {
		return p.Err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *EventPublisher) Events() []domain.LinkEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.LinkEvent(nil), p.events...)
}
