package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"contractguard-backend/analysis"
	"contractguard-backend/models"
	"contractguard-backend/pkg/logger"
)

// QueryEmbedder embeds retrieval queries
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkSearcher finds the stored chunks nearest to a query vector
type ChunkSearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]models.LawChunk, error)
}

const (
	DefaultMaxLaws = 12

	sectionResults     = 2
	dedupePrefixLength = 100
	excludedSourceTerm = "nda template"
)

type criticalQuery struct {
	text string
	k    int
	// require, when set, keeps only the first hit whose content contains it
	require string
}

// criticalQueries are run for every contract regardless of its content
var criticalQueries = []criticalQuery{
	{text: "Article 87 Egyptian courts jurisdiction technology transfer", k: 3, require: "article (87)"},
	{text: "data protection personal data consent egypt", k: 2},
	{text: "electronic signature certification authority", k: 2},
	{text: "copyright intellectual property derivative works", k: 2},
}

type retrievalTopic struct {
	name     string
	keywords []string
}

var retrievalTopics = []retrievalTopic{
	{name: "arbitration", keywords: []string{"dispute", "arbitration", "london", "english law"}},
	{name: "data", keywords: []string{"data", "privacy", "collect", "sell", "monetize"}},
	{name: "signature", keywords: []string{"signature", "electronic", "typed name"}},
	{name: "ip", keywords: []string{"intellectual property", "derivative", "modification"}},
}

// Section is a slice of a contract queried on its own
type Section struct {
	Topic string
	Text  string
}

// ContractSections groups numbered paragraphs by topic. A paragraph may
// land in several topics. Without any topical paragraph the whole contract
// is one section.
func ContractSections(contract string) []Section {
	paragraphs := analysis.NumberedParagraphs(contract)

	var sections []Section
	for _, topic := range retrievalTopics {
		var lines []string
		for _, p := range paragraphs {
			lower := strings.ToLower(p.Text)
			for _, kw := range topic.keywords {
				if strings.Contains(lower, kw) {
					lines = append(lines, p.ID+" "+p.Text)
					break
				}
			}
		}
		if len(lines) > 0 {
			sections = append(sections, Section{Topic: topic.name, Text: strings.Join(lines, "\n")})
		}
	}

	if len(sections) == 0 {
		return []Section{{Topic: "full", Text: contract}}
	}
	return sections
}

// LawRetriever gathers the law excerpts a contract is checked against
type LawRetriever struct {
	embedder QueryEmbedder
	searcher ChunkSearcher
	maxLaws  int
}

// RetrieverOption is a functional option for LawRetriever
type RetrieverOption func(*LawRetriever)

// WithMaxLaws caps the number of distinct excerpts kept before filtering
func WithMaxLaws(n int) RetrieverOption {
	return func(r *LawRetriever) {
		if n > 0 {
			r.maxLaws = n
		}
	}
}

func NewLawRetriever(embedder QueryEmbedder, searcher ChunkSearcher, opts ...RetrieverOption) *LawRetriever {
	r := &LawRetriever{
		embedder: embedder,
		searcher: searcher,
		maxLaws:  DefaultMaxLaws,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve runs the mandatory queries, then one query per contract section,
// and returns the distinct results numbered in retrieval order
func (r *LawRetriever) Retrieve(ctx context.Context, contract string) ([]models.LawExcerpt, error) {
	var hits []models.LawChunk

	for _, q := range criticalQueries {
		chunks, err := r.search(ctx, q.text, q.k)
		if err != nil {
			return nil, err
		}
		if q.require == "" {
			hits = append(hits, chunks...)
			continue
		}
		for _, c := range chunks {
			if strings.Contains(strings.ToLower(c.Content), q.require) {
				hits = append(hits, c)
				break
			}
		}
	}

	sections := ContractSections(contract)
	logger.Debug(ctx, "contract sections extracted", "sections", len(sections))
	for _, section := range sections {
		chunks, err := r.search(ctx, section.Text, sectionResults)
		if err != nil {
			return nil, err
		}
		hits = append(hits, chunks...)
	}

	laws := toExcerpts(dedupe(hits), r.maxLaws)
	logger.Info(ctx, "laws retrieved", "candidates", len(hits), "laws", len(laws))
	return laws, nil
}

func (r *LawRetriever) search(ctx context.Context, query string, k int) ([]models.LawChunk, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	chunks, err := r.searcher.SearchSimilar(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search laws: %w", err)
	}
	return chunks, nil
}

type chunkKey struct {
	source string
	page   int
	prefix string
}

func dedupe(chunks []models.LawChunk) []models.LawChunk {
	seen := make(map[chunkKey]struct{}, len(chunks))
	unique := make([]models.LawChunk, 0, len(chunks))
	for _, c := range chunks {
		key := chunkKey{source: c.Source, page: c.Page, prefix: prefix(c.Content, dedupePrefixLength)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// toExcerpts numbers the first limit chunks from 1 and drops template
// documents afterwards, so a dropped chunk still uses up its number
func toExcerpts(chunks []models.LawChunk, limit int) []models.LawExcerpt {
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}

	laws := make([]models.LawExcerpt, 0, len(chunks))
	for i, c := range chunks {
		source := c.SourceFile()
		if strings.Contains(strings.ToLower(source), excludedSourceTerm) {
			continue
		}
		laws = append(laws, models.LawExcerpt{
			Ordinal:    i + 1,
			SourceFile: source,
			Page:       strconv.Itoa(c.Page),
			Content:    c.Content,
		})
	}
	return laws
}

func prefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
