package index

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/corvid/internal/model"
)

func sampleNodes() []*model.Node {
	return []*model.Node{
		{
			ID:   "a",
			Name: "alpha",
			Type: "page",
			Path: "alpha",
			Body: "The quick brown fox. Quick!",
			Properties: []model.Property{
				{Name: "ref", Type: model.PropertyReference, Values: []string{"b", "missing"}},
				{Name: "title", Type: model.PropertyString, Values: []string{"Alpha Page"}},
				{Name: "priority", Type: model.PropertyNumber, Values: []string{"10"}},
			},
		},
		{
			ID:       "b",
			Name:     "beta",
			Type:     "person",
			ParentID: "a",
			Path:     "alpha/beta",
			Properties: []model.Property{
				{Name: "priority", Type: model.PropertyNumber, Values: []string{"9"}},
				{Name: "done", Type: model.PropertyBoolean, Values: []string{"TRUE"}},
			},
		},
	}
}

func buildSample(t *testing.T) *Snapshot {
	t.Helper()
	b := NewBuilder(3)
	for _, n := range sampleNodes() {
		b.Add(n)
	}
	return b.Build()
}

func TestBuilderAssignsDenseIdentifiers(t *testing.T) {
	s := buildSample(t)
	assert.Equal(t, 2, s.MaxDoc())
	assert.Equal(t, int64(3), s.Generation())

	p, err := s.Postings(FieldUUID, "b")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, p.Slice())

	_, err = s.Document(2)
	assert.ErrorIs(t, err, ErrDocumentOutOfRange)
}

func TestBuilderStoresReferencesSeparately(t *testing.T) {
	s := buildSample(t)
	d, err := s.Document(0)
	require.NoError(t, err)

	assert.Equal(t, []string{NamedValue("ref", "b"), NamedValue("ref", "missing")}, d.Values(FieldReferences))
	assert.Equal(t, []string{"Alpha Page"}, d.PropertyValues("title"))
	assert.Equal(t, "alpha", d.Get(FieldLabel))

	d1, err := s.Document(1)
	require.NoError(t, err)
	assert.Nil(t, d1.Values(FieldReferences))
}

func TestTopLevelNodesIndexEmptyParent(t *testing.T) {
	s := buildSample(t)
	p, err := s.Postings(FieldParent, "")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, p.Slice())
}

func TestNumberTermsSortNumerically(t *testing.T) {
	s := buildSample(t)
	var terms []string
	err := s.Terms(FieldProperties, NamedValuePrefix("priority"), func(term string, _ *PostingSet) bool {
		_, v, ok := SplitNamedValue(term)
		require.True(t, ok)
		f, err := DecodeNumber(v)
		require.NoError(t, err)
		terms = append(terms, EncodeNumber(f))
		return true
	})
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.True(t, sort.StringsAreSorted(terms))

	nine, err := s.Postings(FieldProperties, NamedValue("priority", EncodeNumber(9)))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, nine.Slice())

	done, err := s.Postings(FieldProperties, NamedValue("done", "true"))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, done.Slice())
}

func TestEncodeNumberOrdering(t *testing.T) {
	values := []float64{-100, -1.5, 0, 0.25, 3, 1e9}
	for i := 1; i < len(values); i++ {
		assert.Less(t, EncodeNumber(values[i-1]), EncodeNumber(values[i]))
	}
	for _, v := range values {
		got, err := DecodeNumber(EncodeNumber(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFulltextFrequencies(t *testing.T) {
	s := buildSample(t)

	tf, err := s.TermFreq(FieldFulltext, "quick", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, tf)

	scoped, err := s.Postings(FieldFulltext, NamedValue("title", "page"))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, scoped.Slice())

	df, err := s.DocFreq(FieldFulltext, "beta")
	require.NoError(t, err)
	assert.Equal(t, 1, df)
}

func TestAnalyzerFoldsCaseAndWidth(t *testing.T) {
	a := NewAnalyzer()
	assert.Equal(t, []string{"hello", "world", "42"}, a.Tokens("Hello, WORLD! ４２"))
	assert.Nil(t, a.Tokens("   "))
	assert.Equal(t, "strasse", a.Token("STRASSE"))
}

type failingSource struct{}

func (failingSource) Scan(context.Context, func(*model.Node) error) error {
	return errors.New("disk on fire")
}

func TestFromSourcePropagatesScanErrors(t *testing.T) {
	_, err := FromSource(context.Background(), failingSource{}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestDateTermsAreCanonical(t *testing.T) {
	assert.Equal(t, "2025-06-15T09:00:00Z", PropertyTerm(model.PropertyDate, "2025-06-15T14:00:00+05:00"))
	assert.Equal(t, "2025-06-15", PropertyTerm(model.PropertyDate, "2025-06-15"))
	assert.Equal(t, "someday", PropertyTerm(model.PropertyDate, "someday"))
	assert.Less(t,
		PropertyTerm(model.PropertyDate, "2025-06-15"),
		PropertyTerm(model.PropertyDate, "2025-06-15T00:30"))
}
