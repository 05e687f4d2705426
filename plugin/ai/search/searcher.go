package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kbdesk/kbdesk/plugin/ai"
)

// ProviderGetter resolves a provider id to a capability object. An empty
// id resolves to the configured default.
type ProviderGetter interface {
	Get(id string) (ai.Provider, error)
	DefaultID() string
}

// Request carries one hybrid search invocation.
type Request struct {
	Query string
	// Provider selects the embedding and rerank provider; empty means
	// the configured default.
	Provider string
	Limit    int
	// CourseID restricts retrieval to one course plus global items.
	CourseID *string
	// OperatorGuidance is free-text steering parsed into a Directive.
	OperatorGuidance string
}

const defaultLimit = 5

// Searcher composes the full pipeline into one HybridSearch call. Each
// invocation is stateless; only the immutable Config is shared.
type Searcher struct {
	vector        *VectorRetriever
	lexical       *LexicalRetriever
	providers     ProviderGetter
	cfg           Config
	rerankEnabled bool
	logger        *slog.Logger
}

func NewSearcher(store ItemSearcher, providers ProviderGetter, cfg Config, rerankEnabled bool, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		vector:        NewVectorRetriever(store),
		lexical:       NewLexicalRetriever(store),
		providers:     providers,
		cfg:           cfg,
		rerankEnabled: rerankEnabled,
		logger:        logger,
	}
}

// HybridSearch runs both retrieval paths concurrently, merges, boosts,
// reranks and partitions. Sub-step failures degrade instead of raising:
// an unavailable embedding provider falls back to lexical-only, a failed
// rerank keeps the pre-rerank order. Only the datastore failing on both
// paths surfaces as an error.
func (s *Searcher) HybridSearch(ctx context.Context, request *Request) ([]*Candidate, error) {
	query := strings.TrimSpace(request.Query)
	if query == "" {
		return []*Candidate{}, nil
	}
	limit := request.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	fetchLimit := limit * s.cfg.RetrievalFanout

	// Stored embeddings are keyed by the concrete provider id, so the
	// default has to be resolved before the vector path runs.
	providerID := request.Provider
	if providerID == "" && s.providers != nil {
		providerID = s.providers.DefaultID()
	}
	provider := s.resolveProvider(providerID)

	var (
		vectorResults, lexicalResults []*Candidate
		vectorErr, lexicalErr         error
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		vectorResults, vectorErr = s.vectorSearch(groupCtx, provider, providerID, query, fetchLimit, request.CourseID)
		return nil
	})
	group.Go(func() error {
		lexicalResults, lexicalErr = s.lexical.Search(groupCtx, query, fetchLimit, request.CourseID)
		return nil
	})
	_ = group.Wait()

	if vectorErr != nil && lexicalErr != nil {
		return nil, errors.Wrap(lexicalErr, "both retrieval paths failed")
	}
	if vectorErr != nil {
		s.logger.Warn("vector retrieval failed, using lexical results only", "error", vectorErr)
		vectorResults = nil
	}
	if lexicalErr != nil {
		s.logger.Warn("lexical retrieval failed, using vector results only", "error", lexicalErr)
		lexicalResults = nil
	}

	merged := Merge(vectorResults, lexicalResults, s.cfg)
	if len(merged) == 0 {
		return []*Candidate{}, nil
	}

	directive := ParseDirective(request.OperatorGuidance)
	ranked := Boost(merged, directive, s.cfg)

	if s.rerankEnabled && provider != nil {
		reranker := NewReranker(provider, s.cfg, s.logger)
		ranked = reranker.Rerank(ctx, query, ranked, fetchLimit)
	}
	return Partition(ranked, limit), nil
}

func (s *Searcher) resolveProvider(id string) ai.Provider {
	if s.providers == nil {
		return nil
	}
	provider, err := s.providers.Get(id)
	if err != nil {
		s.logger.Warn("provider unavailable, degrading to lexical-only search", "provider", id, "error", err)
		return nil
	}
	return provider
}

// vectorSearch embeds the query and runs similarity search. A missing or
// failing provider is not an error here; it yields no vector results and
// the lexical path carries the call.
func (s *Searcher) vectorSearch(ctx context.Context, provider ai.Provider, providerID, query string, limit int, courseID *string) ([]*Candidate, error) {
	if provider == nil {
		return nil, nil
	}
	vector, err := provider.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, degrading to lexical-only search", "provider", providerID, "error", err)
		return nil, nil
	}
	return s.vector.Search(ctx, providerID, vector, limit, courseID)
}
