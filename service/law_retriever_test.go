package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"contractguard-backend/models"
	"contractguard-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder encodes the call number in the vector so fakeSearcher can
// answer each query separately
type fakeEmbedder struct {
	queries []string
	err     error
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, text)
	return []float32{float32(len(f.queries))}, nil
}

type fakeSearcher struct {
	results map[int][]models.LawChunk
	limits  []int
	err     error
}

func (f *fakeSearcher) SearchSimilar(_ context.Context, embedding []float32, limit int) ([]models.LawChunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.limits = append(f.limits, limit)
	chunks := f.results[int(embedding[0])]
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

func chunk(source string, page int, content string) models.LawChunk {
	return models.LawChunk{Source: source, Page: page, Content: content}
}

const retrievalContract = "1.1 Any dispute shall be settled by arbitration in London under English law.\n" +
	"1.2 The Provider may sell collected data to partners."

func retrievalFixture() *fakeSearcher {
	article87 := chunk("/laws/Commercial_Law.pdf", 40, "Article (87) Egyptian courts have jurisdiction over technology transfer disputes.")
	return &fakeSearcher{results: map[int][]models.LawChunk{
		1: {
			chunk("/laws/Commercial_Law.pdf", 39, "Article (86) The importer shall keep records."),
			article87,
			chunk("/laws/Commercial_Law.pdf", 41, "As article (87) states, arbitration abroad is void."),
		},
		2: {
			chunk("/laws/Data_Protection_Law.pdf", 1, "Personal data may not be processed without consent."),
			chunk("/laws/Data_Protection_Law.pdf", 2, "The controller shall appoint a representative in Egypt."),
		},
		3: {chunk("/laws/E_Signature_Law.pdf", 5, "Electronic signatures require a certification authority.")},
		4: {},
		5: {article87, chunk("/laws/NDA Template.pdf", 1, "The receiving party shall keep information confidential.")},
		6: {chunk("/laws/Data_Protection_Law.pdf", 7, "Selling personal data requires explicit consent.")},
	}}
}

func TestRetrieve(t *testing.T) {
	embedder := &fakeEmbedder{}
	searcher := retrievalFixture()

	laws, err := NewLawRetriever(embedder, searcher).Retrieve(context.Background(), retrievalContract)
	require.NoError(t, err)

	require.Len(t, embedder.queries, 6)
	assert.Equal(t, "Article 87 Egyptian courts jurisdiction technology transfer", embedder.queries[0])
	assert.Equal(t, "1.1 Any dispute shall be settled by arbitration in London under English law.", embedder.queries[4])
	assert.Equal(t, "1.2 The Provider may sell collected data to partners.", embedder.queries[5])
	assert.Equal(t, []int{3, 2, 2, 2, 2, 2}, searcher.limits)

	ordinals := make([]int, len(laws))
	for i, law := range laws {
		ordinals[i] = law.Ordinal
	}
	assert.Equal(t, []int{1, 2, 3, 4, 6}, ordinals)

	assert.Equal(t, models.LawExcerpt{
		Ordinal:    1,
		SourceFile: "Commercial_Law.pdf",
		Page:       "40",
		Content:    "Article (87) Egyptian courts have jurisdiction over technology transfer disputes.",
	}, laws[0])
	assert.Equal(t, "Data_Protection_Law.pdf", laws[4].SourceFile)
	assert.Equal(t, "7", laws[4].Page)
}

func TestRetrieveCapsLaws(t *testing.T) {
	laws, err := NewLawRetriever(&fakeEmbedder{}, retrievalFixture(), WithMaxLaws(3)).
		Retrieve(context.Background(), retrievalContract)
	require.NoError(t, err)

	require.Len(t, laws, 3)
	assert.Equal(t, 3, laws[2].Ordinal)
	assert.Equal(t, "Data_Protection_Law.pdf", laws[2].SourceFile)
	assert.Equal(t, "2", laws[2].Page)
}

func TestRetrieveErrors(t *testing.T) {
	quota := errors.New("quota exceeded")
	_, err := NewLawRetriever(&fakeEmbedder{err: quota}, &fakeSearcher{}).Retrieve(context.Background(), retrievalContract)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.ErrorIs(t, err, quota)

	down := errors.New("connection refused")
	_, err = NewLawRetriever(&fakeEmbedder{}, &fakeSearcher{err: down}).Retrieve(context.Background(), retrievalContract)
	assert.ErrorIs(t, err, down)
}

func TestContractSections(t *testing.T) {
	sections := ContractSections(retrievalContract + "\n2.1 Signing with a typed name is accepted for every order.")

	require.Len(t, sections, 3)
	assert.Equal(t, "arbitration", sections[0].Topic)
	assert.Equal(t, "data", sections[1].Topic)
	assert.Equal(t, "signature", sections[2].Topic)
	assert.Equal(t, "2.1 Signing with a typed name is accepted for every order.", sections[2].Text)

	full := ContractSections("The parties agree to cooperate in good faith.")
	assert.Equal(t, []Section{{Topic: "full", Text: "The parties agree to cooperate in good faith."}}, full)
}

func TestDedupeUsesContentPrefix(t *testing.T) {
	long := strings.Repeat("a", 100)
	chunks := []models.LawChunk{
		chunk("law.pdf", 1, long+" first tail"),
		chunk("law.pdf", 1, long+" second tail"),
		chunk("law.pdf", 2, long+" first tail"),
		chunk("other.pdf", 1, long),
	}

	unique := dedupe(chunks)

	require.Len(t, unique, 3)
	assert.Equal(t, long+" first tail", unique[0].Content)
	assert.Equal(t, 2, unique[1].Page)
	assert.Equal(t, "other.pdf", unique[2].Source)
}

func TestPrefixCountsRunes(t *testing.T) {
	assert.Equal(t, "مادة", prefix("مادة (87)", 4))
	assert.Equal(t, "short", prefix("short", 100))
}

func TestRetrieveLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.WithValue(context.Background(), logger.RequestIDKey, "req-42")
	_, err := NewLawRetriever(&fakeEmbedder{}, retrievalFixture()).Retrieve(ctx, retrievalContract)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "contract sections extracted")
	assert.Contains(t, out, "laws retrieved")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Contains(t, line, "request_id=req-42")
	}
}
