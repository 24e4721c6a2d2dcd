package links

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"assetgraph/src/domain"
	"assetgraph/src/domain/entities"
	"assetgraph/src/infra/metrics"
)

type LinkService struct {
	logger     *slog.Logger
	store      LinkStore
	catalog    AssetCatalog
	authorizer Authorizer
	metadata   MetadataStore
	publisher  EventPublisher

	validator *RelationshipValidator
	cycles    *CycleDetector
	trees     *TreeBuilder
	resolver  *nodeResolver

	config Config
	newID  func() string
	now    func() time.Time
}

func NewLinkService(
	logger *slog.Logger,
	store LinkStore,
	catalog AssetCatalog,
	authorizer Authorizer,
	metadata MetadataStore,
	publisher EventPublisher,
	config Config,
) *LinkService {
	config = config.withDefaults()
	resolver := newNodeResolver(logger, catalog, config.ResolveBatchSize, config.ResolveConcurrency)

	return &LinkService{
		logger:     logger,
		store:      store,
		catalog:    catalog,
		authorizer: authorizer,
		metadata:   metadata,
		publisher:  publisher,
		validator:  NewRelationshipValidator(store, catalog),
		cycles:     NewCycleDetector(logger, store, config.MaxCycleCheckVisits, config.CycleCheckTimeout),
		trees:      NewTreeBuilder(logger, store, resolver, config.MaxTreeDepth, config.MaxTreeNodes),
		resolver:   resolver,
		config:     config,
		newID:      uuid.NewString,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *LinkService) loadLink(ctx context.Context, op string, linkID string) (entities.AssetLink, error) {
	link, err := s.store.Get(ctx, linkID)
	if errors.Is(err, domain.ErrLinkNotFound) {
		return entities.AssetLink{}, fmt.Errorf("%s - link %s: %w", op, linkID, domain.ErrLinkNotFound)
	}
	if err != nil {
		return entities.AssetLink{}, domain.StorageError(op, err)
	}
	return link, nil
}

// authorizeLink exige a ação nas duas pontas. Uma ponta que sumiu do catálogo
// responde como "não autorizado" para não revelar o motivo.
func (s *LinkService) authorizeLink(ctx context.Context, caller domain.Caller, link entities.AssetLink, action domain.Action) error {
	access := newAccessChecker(ctx, s.authorizer, caller, action)

	nodes, err := s.resolver.resolve(ctx, []entities.AssetKey{link.From, link.To})
	if err != nil {
		return err
	}

	fromNode, fromOK := nodes[link.From]
	toNode, toOK := nodes[link.To]
	if !fromOK || !toOK {
		s.logger.Warn("Asset link endpoint no longer resolves",
			"link_id", link.ID,
			"from", link.From.String(),
			"to", link.To.String())
		return domain.NewPermissionError(action, "Not authorized to "+string(action)+" this asset link")
	}

	return access.requireBoth(fromNode, toNode)
}

func requireCaller(caller domain.Caller, action domain.Action) error {
	if caller.IsAnonymous() {
		return domain.NewPermissionError(action, "Not authorized to "+string(action)+" this asset link")
	}
	return nil
}

// publish nunca falha a operação: a escrita já foi feita.
func (s *LinkService) publish(ctx context.Context, caller domain.Caller, eventType string, link entities.AssetLink) {
	event := domain.LinkEvent{
		EventID:    s.newID(),
		EventType:  eventType,
		ActorID:    caller.UserID,
		OccurredAt: s.now(),
		Link:       link,
	}

	if err := s.publisher.PublishLinkEvent(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Error("Failed to publish asset link event",
			"event_type", eventType,
			"link_id", link.ID,
			"error", err)
	}
}

func (s *LinkService) observe(operation string, err error) {
	metrics.LinkOperations.WithLabelValues(operation, outcome(err)).Inc()

	if validationErr, ok := domain.AsValidationError(err); ok {
		metrics.ValidationRejections.WithLabelValues(string(validationErr.Rule)).Inc()
	}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}

	var permissionErr *domain.PermissionError
	if _, ok := domain.AsValidationError(err); ok {
		return "validation_error"
	}

	switch {
	case errors.As(err, &permissionErr):
		return "permission_denied"
	case domain.IsNotFound(err):
		return "not_found"
	case errors.Is(err, domain.ErrIntegrity):
		return "integrity_error"
	case errors.Is(err, domain.ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}

// normalizeTags mantém a primeira ocorrência de cada tag e rejeita tags vazias.
func normalizeTags(tags []string) ([]string, error) {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return nil, domain.NewValidationError(domain.RuleInvalidTags, "Tags cannot be blank")
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}

	return normalized, nil
}
