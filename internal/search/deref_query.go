package search

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/aidanlsb/corvid/internal/index"
)

// DerefQuery selects the nodes referenced through a reference property by
// the nodes a context query matches, optionally restricted to targets with
// a given name. It is a pure filter: every match scores 1.
type DerefQuery struct {
	context     Query
	refProperty string
	nameTest    string
}

// NewDerefQuery creates a dereference query. An empty or "*" name test
// disables name filtering.
func NewDerefQuery(context Query, refProperty, nameTest string) *DerefQuery {
	if nameTest == "*" {
		nameTest = ""
	}
	return &DerefQuery{context: context, refProperty: refProperty, nameTest: nameTest}
}

func (q *DerefQuery) Context() Query      { return q.context }
func (q *DerefQuery) RefProperty() string { return q.refProperty }
func (q *DerefQuery) NameTest() string    { return q.nameTest }

// Rewrite rewrites the context query; the query returns itself when the
// context is unchanged.
func (q *DerefQuery) Rewrite(r index.Reader) (Query, error) {
	c, err := q.context.Rewrite(r)
	if err != nil {
		return nil, err
	}
	if c == q.context {
		return q, nil
	}
	return &DerefQuery{context: c, refProperty: q.refProperty, nameTest: q.nameTest}, nil
}

// ExtractTerms adds nothing. Dereferencing is a structural join and does
// not contribute terms to highlighting or scoring.
func (q *DerefQuery) ExtractTerms(map[Term]struct{}) {}

func (q *DerefQuery) String() string {
	name := q.nameTest
	if name == "" {
		name = "*"
	}
	return fmt.Sprintf("DerefQuery(%s, @%s, %s)", q.context, q.refProperty, name)
}

func (q *DerefQuery) CreateWeight(s *Searcher) (Weight, error) {
	cw, err := q.context.CreateWeight(s)
	if err != nil {
		return nil, err
	}
	w := &derefWeight{query: q, context: cw, logger: s.Logger()}
	if q.nameTest != "" {
		if w.nameTest, err = NewTermQuery(index.FieldLabel, q.nameTest).CreateWeight(s); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// derefWeight holds only compiled sub-weights; per-execution state lives in
// the scorer it creates.
type derefWeight struct {
	query    *DerefQuery
	context  Weight
	nameTest Weight // nil without a name test
	logger   *slog.Logger
}

func (w *derefWeight) Query() Query   { return w.query }
func (w *derefWeight) Value() float32 { return 1 }

// Scorer obtains the sub-scorers now and defers evaluation to the first
// Next or Advance.
func (w *derefWeight) Scorer(r index.Reader) (Scorer, error) {
	exec := &derefExecution{
		reader:      r,
		refProperty: w.query.refProperty,
		logger:      w.logger,
	}
	var err error
	if exec.context, err = w.context.Scorer(r); err != nil {
		return nil, err
	}
	if w.nameTest != nil {
		if exec.nameTest, err = w.nameTest.Scorer(r); err != nil {
			return nil, err
		}
	}
	return &derefScorer{exec: exec, doc: -1}, nil
}

// Explain returns an empty explanation; dereferencing carries no graded relevance.
func (w *derefWeight) Explain(index.Reader, int) (*Explanation, error) {
	return &Explanation{}, nil
}

// derefExecution is the state of one evaluation: the snapshot and the
// sub-scorers it drains.
type derefExecution struct {
	reader      index.Reader
	context     Scorer
	nameTest    Scorer // nil without a name test
	refProperty string
	logger      *slog.Logger
}

// evaluate computes the targets of the execution. The sub-scorers are
// consumed, so it runs at most once.
func (e *derefExecution) evaluate() (*index.PostingSet, error) {
	contextHits, err := CollectSet(e.context)
	if err != nil {
		return nil, fmt.Errorf("collect context: %w", err)
	}
	targets := index.NewPostingSet()
	if contextHits.IsEmpty() {
		return targets, nil
	}

	var nameHits *index.PostingSet
	if e.nameTest != nil {
		if nameHits, err = CollectSet(e.nameTest); err != nil {
			return nil, fmt.Errorf("collect name test: %w", err)
		}
	}

	prefix := index.NamedValuePrefix(e.refProperty)
	var literals []string
	seen := make(map[string]struct{})
	var readErr error
	contextHits.ForEach(func(doc int) bool {
		d, err := e.reader.Document(doc)
		if err != nil {
			readErr = err
			return false
		}
		for _, v := range d.Values(index.FieldReferences) {
			if !strings.HasPrefix(v, prefix) {
				continue
			}
			lit := v[len(prefix):]
			if _, ok := seen[lit]; ok {
				continue
			}
			seen[lit] = struct{}{}
			literals = append(literals, lit)
		}
		return true
	})
	if readErr != nil {
		return nil, fmt.Errorf("read references: %w", readErr)
	}

	for _, lit := range literals {
		postings, err := e.reader.Postings(index.FieldUUID, lit)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", lit, err)
		}
		targets.Or(postings)
	}
	if nameHits != nil {
		targets.And(nameHits)
	}

	e.logger.Debug("deref evaluated",
		"property", e.refProperty,
		"context", contextHits.Len(),
		"references", len(literals),
		"targets", targets.Len())
	return targets, nil
}

type derefState int

const (
	derefPending derefState = iota
	derefEvaluated
)

// derefScorer walks the targets of one execution. It is single-pass and
// single-executor: entering it from two goroutines at once fails with
// ErrConcurrentScorerUse, and once exhausted it stays exhausted.
type derefScorer struct {
	exec  *derefExecution
	state derefState
	hits  *index.PostingSet
	err   error
	doc   int
	busy  atomic.Bool
}

// compile evaluates the execution on first call and is a no-op afterwards.
// A failed evaluation keeps failing with the same error.
func (s *derefScorer) compile() error {
	if s.state == derefEvaluated {
		return s.err
	}
	s.hits, s.err = s.exec.evaluate()
	s.state = derefEvaluated
	return s.err
}

func (s *derefScorer) Next() (bool, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return false, ErrConcurrentScorerUse
	}
	defer s.busy.Store(false)

	if err := s.compile(); err != nil {
		return false, err
	}
	if s.doc == NoMoreDocs {
		return false, nil
	}
	return s.position(s.hits.NextMember(s.doc + 1)), nil
}

// Advance positions on the first target >= target. Unlike Next it may move
// backwards while the scorer is not exhausted.
func (s *derefScorer) Advance(target int) (bool, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return false, ErrConcurrentScorerUse
	}
	defer s.busy.Store(false)

	if err := s.compile(); err != nil {
		return false, err
	}
	if s.doc == NoMoreDocs {
		return false, nil
	}
	return s.position(s.hits.NextMember(target)), nil
}

func (s *derefScorer) position(next int) bool {
	if next < 0 {
		s.doc = NoMoreDocs
		return false
	}
	s.doc = next
	return true
}

func (s *derefScorer) Doc() int       { return s.doc }
func (s *derefScorer) Score() float32 { return 1 }
