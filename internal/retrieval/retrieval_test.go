package retrieval_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aris-ai/aris/internal/document"
	"github.com/aris-ai/aris/internal/provider"
	"github.com/aris-ai/aris/internal/retrieval"
	"github.com/aris-ai/aris/internal/vector"
)

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (fakeEmbedder) GetDimensions() uint { return 2 }

type fakeStore struct {
	mu      sync.Mutex
	hits    map[string][]*vector.ScoredPoint
	exists  map[string]bool
	queries []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hits:   make(map[string][]*vector.ScoredPoint),
		exists: make(map[string]bool),
	}
}

func (s *fakeStore) CollectionExists(_ context.Context, name string) (bool, error) {
	return s.exists[name], nil
}
func (s *fakeStore) CreateCollection(_ context.Context, _ vector.Collection) error { return nil }
func (s *fakeStore) Upsert(_ context.Context, _ string, _ []*vector.Point) error   { return nil }
func (s *fakeStore) DeleteBySource(_ context.Context, _ string, _ string) error    { return nil }
func (s *fakeStore) Close() error                                                  { return nil }

func (s *fakeStore) Query(_ context.Context, params *vector.QueryParams) ([]*vector.ScoredPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	collection := params.Collection()
	s.queries = append(s.queries, collection)
	return s.hits[collection], nil
}

type fakeReranker struct {
	results []provider.RerankResult
	err     error
	called  bool
}

func (r *fakeReranker) Rerank(_ context.Context, _ string, _ []string, _ int) ([]provider.RerankResult, error) {
	r.called = true
	if r.err != nil {
		return nil, r.err
	}
	return r.results, nil
}

type fakeLM struct {
	output string
	err    error
}

func (l *fakeLM) Generate(_ context.Context, _ provider.GenerationRequest) (string, error) {
	return l.output, l.err
}

func textPoint(id, source string, page int, text string, score float32) *vector.ScoredPoint {
	return &vector.ScoredPoint{
		ID:    id,
		Score: score,
		Payload: map[string]any{
			vector.PayloadSource:      source,
			vector.PayloadText:        text,
			vector.PayloadPage:        int64(page),
			vector.PayloadContentType: string(document.ContentTypeText),
		},
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	store := newFakeStore()
	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:         fakeEmbedder{},
		Store:            store,
		TextCollection:   "text",
		ImagesCollection: "images",
	})

	res, err := r.Retrieve(context.Background(), retrieval.Params{Query: "anything"})
	if err != nil {
		t.Fatalf("empty corpus must not error: %v", err)
	}
	if len(res.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(res.Citations))
	}
}

func TestRetrieveReturnsOrderedCitations(t *testing.T) {
	store := newFakeStore()
	store.exists["text"] = true
	store.hits["text"] = []*vector.ScoredPoint{
		textPoint("a", "doc.pdf", 1, "first passage", 0.9),
		textPoint("b", "doc.pdf", 2, "second passage", 0.6),
	}

	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:       fakeEmbedder{},
		Store:          store,
		TextCollection: "text",
	})

	res, err := r.Retrieve(context.Background(), retrieval.Params{Query: "what is it"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(res.Citations))
	}
	if res.Citations[0].ID == "" || res.Citations[0].Page != 1 {
		t.Errorf("unexpected first citation %+v", res.Citations[0])
	}
	if res.Citations[0].ConfidencePercentage < res.Citations[1].ConfidencePercentage {
		t.Errorf("confidence must not increase down the list")
	}
}

func TestRetrieveDropsMislabeledImageHits(t *testing.T) {
	store := newFakeStore()
	store.exists["images"] = true
	store.hits["images"] = []*vector.ScoredPoint{
		{
			ID:    "img-1",
			Score: 0.8,
			Payload: map[string]any{
				vector.PayloadSource:      "doc.pdf",
				vector.PayloadText:        "chart ocr",
				vector.PayloadPage:        int64(3),
				vector.PayloadContentType: string(document.ContentTypeImageOCR),
			},
		},
		{
			ID:    "contaminated",
			Score: 0.9,
			Payload: map[string]any{
				vector.PayloadSource:      "doc.pdf",
				vector.PayloadText:        "plain text snuck in",
				vector.PayloadPage:        int64(1),
				vector.PayloadContentType: string(document.ContentTypeText),
			},
		},
	}

	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:         fakeEmbedder{},
		Store:            store,
		ImagesCollection: "images",
	})

	res, err := r.Retrieve(context.Background(), retrieval.Params{Query: "show the chart"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(res.Citations))
	}
	if res.Citations[0].ID != "img-1" {
		t.Errorf("expected only the image_ocr hit, got '%s'", res.Citations[0].ID)
	}
	if res.Citations[0].ContentType != document.ContentTypeImageOCR {
		t.Errorf("unexpected content type '%s'", res.Citations[0].ContentType)
	}
}

func TestRetrieveRerankOrderWins(t *testing.T) {
	store := newFakeStore()
	store.exists["text"] = true
	store.hits["text"] = []*vector.ScoredPoint{
		textPoint("a", "doc.pdf", 1, "high similarity", 0.95),
		textPoint("b", "doc.pdf", 2, "low similarity", 0.2),
	}

	reranker := &fakeReranker{
		results: []provider.RerankResult{
			{Index: 1, Score: 0.9},
			{Index: 0, Score: 0.1},
		},
	}

	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:       fakeEmbedder{},
		Store:          store,
		Reranker:       reranker,
		RerankEnabled:  true,
		TextCollection: "text",
	})

	res, err := r.Retrieve(context.Background(), retrieval.Params{Query: "which one"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reranker.called {
		t.Fatal("reranker was not called")
	}
	if res.Citations[0].ID != "b" {
		t.Errorf("expected rerank order to win, got '%s' first", res.Citations[0].ID)
	}
	if res.Citations[0].RerankScore == nil {
		t.Errorf("expected rerank score on first citation")
	}
}

func TestRetrieveRerankFailureFallsBack(t *testing.T) {
	store := newFakeStore()
	store.exists["text"] = true
	store.hits["text"] = []*vector.ScoredPoint{
		textPoint("a", "doc.pdf", 1, "high similarity", 0.95),
		textPoint("b", "doc.pdf", 2, "low similarity", 0.2),
	}

	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:       fakeEmbedder{},
		Store:          store,
		Reranker:       &fakeReranker{err: errors.New("rerank service down")},
		RerankEnabled:  true,
		TextCollection: "text",
	})

	res, err := r.Retrieve(context.Background(), retrieval.Params{Query: "which one"})
	if err != nil {
		t.Fatalf("rerank failure must not fail the query: %v", err)
	}
	if res.Citations[0].ID != "a" {
		t.Errorf("expected similarity order on fallback, got '%s' first", res.Citations[0].ID)
	}
	if res.Citations[0].RerankScore != nil {
		t.Errorf("fallback citations must not carry rerank scores")
	}
}

func TestRetrieveSubqueryFanOut(t *testing.T) {
	store := newFakeStore()
	store.exists["text"] = true
	store.hits["text"] = []*vector.ScoredPoint{
		textPoint("a", "doc.pdf", 1, "passage", 0.9),
	}

	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:         fakeEmbedder{},
		Store:            store,
		LM:               &fakeLM{output: "first subquery\nsecond subquery"},
		DecomposeEnabled: true,
		TextCollection:   "text",
	})

	res, err := r.Retrieve(context.Background(), retrieval.Params{Query: "compound question"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Subqueries) != 2 {
		t.Fatalf("expected 2 subqueries, got %v", res.Subqueries)
	}
	if len(store.queries) != 2 {
		t.Errorf("expected one query per subquery, got %d", len(store.queries))
	}
	// same point returned for both subqueries collapses to one citation
	if len(res.Citations) != 1 {
		t.Errorf("expected deduplicated citations, got %d", len(res.Citations))
	}
}

func TestRetrieveSynthesizesAnswer(t *testing.T) {
	store := newFakeStore()
	store.exists["text"] = true
	store.hits["text"] = []*vector.ScoredPoint{
		textPoint("a", "doc.pdf", 1, "revenue grew 14 percent", 0.9),
	}

	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder:       fakeEmbedder{},
		Store:          store,
		LM:             &fakeLM{output: "Revenue grew 14 percent [1]."},
		TextCollection: "text",
	})

	res, err := r.Retrieve(context.Background(), retrieval.Params{Query: "how much did revenue grow", Synthesize: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer == "" {
		t.Errorf("expected a synthesized answer")
	}
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r := retrieval.NewRetriever(retrieval.RetrieverParams{
		Embedder: fakeEmbedder{},
		Store:    newFakeStore(),
	})
	if _, err := r.Retrieve(context.Background(), retrieval.Params{Query: "  "}); err == nil {
		t.Errorf("expected error for blank query")
	}
}
