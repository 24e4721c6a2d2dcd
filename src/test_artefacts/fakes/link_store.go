package fakes

import (
	"context"
	"slices"
	"sync"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
)

// LinkStore é um LinkStore em memória com a mesma escrita condicional do Postgres.
type LinkStore struct {
	mu     sync.Mutex
	links  map[string]entities.AssetLink
	unique map[string]string

	// Err faz todas as chamadas falharem.
	Err error
	// QueryByFromErrs faz QueryByFrom falhar só para as chaves listadas.
	QueryByFromErrs map[entities.AssetKey]error

	QueryByFromCalls int
}

func NewLinkStore() *LinkStore {
	return &LinkStore{
		links:           make(map[string]entities.AssetLink),
		unique:          make(map[string]string),
		QueryByFromErrs: make(map[entities.AssetKey]error),
	}
}

// Seed grava direto, sem checar unicidade, para montar grafos corrompidos nos testes.
func (s *LinkStore) Seed(links ...entities.AssetLink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, link := range links {
		s.links[link.ID] = clone(link)
		s.unique[link.UniquenessKey()] = link.ID
	}
}

func (s *LinkStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

func (s *LinkStore) Get(_ context.Context, linkID string) (entities.AssetLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return entities.AssetLink{}, s.Err
	}

	link, ok := s.links[linkID]
	if !ok {
		return entities.AssetLink{}, domain.ErrLinkNotFound
	}
	return clone(link), nil
}

func (s *LinkStore) QueryByFrom(_ context.Context, from entities.AssetKey) ([]entities.AssetLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.QueryByFromCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if err, ok := s.QueryByFromErrs[from]; ok {
		return nil, err
	}

	return s.filter(func(link entities.AssetLink) bool { return link.From == from }), nil
}

func (s *LinkStore) QueryByTo(_ context.Context, to entities.AssetKey) ([]entities.AssetLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	return s.filter(func(link entities.AssetLink) bool { return link.To == to }), nil
}

func (s *LinkStore) QueryByFromAndTo(_ context.Context, from, to entities.AssetKey, relationshipType entities.RelationshipType) ([]entities.AssetLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}

	return s.filter(func(link entities.AssetLink) bool {
		return link.From == from && link.To == to && link.RelationshipType == relationshipType
	}), nil
}

func (s *LinkStore) Put(_ context.Context, link entities.AssetLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	if _, exists := s.unique[link.UniquenessKey()]; exists {
		return domain.ErrLinkConflict
	}
	if _, exists := s.links[link.ID]; exists {
		return domain.ErrLinkConflict
	}

	s.links[link.ID] = clone(link)
	s.unique[link.UniquenessKey()] = link.ID
	return nil
}

func (s *LinkStore) Update(_ context.Context, link entities.AssetLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	current, ok := s.links[link.ID]
	if !ok {
		return domain.ErrLinkNotFound
	}

	if owner, exists := s.unique[link.UniquenessKey()]; exists && owner != link.ID {
		return domain.ErrLinkConflict
	}

	delete(s.unique, current.UniquenessKey())
	s.links[link.ID] = clone(link)
	s.unique[link.UniquenessKey()] = link.ID
	return nil
}

func (s *LinkStore) Delete(_ context.Context, linkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return s.Err
	}

	link, ok := s.links[linkID]
	if !ok {
		return domain.ErrLinkNotFound
	}

	delete(s.links, linkID)
	delete(s.unique, link.UniquenessKey())
	return nil
}

func (s *LinkStore) filter(match func(entities.AssetLink) bool) []entities.AssetLink {
	result := make([]entities.AssetLink, 0)
	for _, link := range s.links {
		if match(link) {
			result = append(result, clone(link))
		}
	}
	return result
}

func clone(link entities.AssetLink) entities.AssetLink {
	link.Tags = slices.Clone(link.Tags)
	return link
}
