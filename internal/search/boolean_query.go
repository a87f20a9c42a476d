package search

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/corvid/internal/index"
)

// Occur specifies how a clause participates in a BooleanQuery.
type Occur int

const (
	// Must clauses are required to match.
	Must Occur = iota
	// Should clauses are optional; a query of only Should clauses matches their union.
	Should
	// MustNot clauses exclude their matches.
	MustNot
)

func (o Occur) String() string {
	switch o {
	case Must:
		return "+"
	case MustNot:
		return "-"
	default:
		return ""
	}
}

// BooleanClause is one operand of a BooleanQuery.
type BooleanClause struct {
	Query Query
	Occur Occur
}

// BooleanQuery combines clauses with conjunction, disjunction and exclusion.
// A query made only of MustNot clauses matches every document the clauses
// do not.
type BooleanQuery struct {
	clauses []BooleanClause
}

// NewBooleanQuery creates a boolean query over clauses.
func NewBooleanQuery(clauses ...BooleanClause) *BooleanQuery {
	return &BooleanQuery{clauses: append([]BooleanClause(nil), clauses...)}
}

// Clauses returns a copy of the query's clauses.
func (q *BooleanQuery) Clauses() []BooleanClause {
	return append([]BooleanClause(nil), q.clauses...)
}

func (q *BooleanQuery) Rewrite(r index.Reader) (Query, error) {
	if len(q.clauses) == 1 && q.clauses[0].Occur != MustNot {
		return q.clauses[0].Query, nil
	}
	var rewritten []BooleanClause
	for i, c := range q.clauses {
		sub, err := c.Query.Rewrite(r)
		if err != nil {
			return nil, err
		}
		if sub != c.Query && rewritten == nil {
			rewritten = append(make([]BooleanClause, 0, len(q.clauses)), q.clauses[:i]...)
		}
		if rewritten != nil {
			rewritten = append(rewritten, BooleanClause{Query: sub, Occur: c.Occur})
		}
	}
	if rewritten == nil {
		return q, nil
	}
	return &BooleanQuery{clauses: rewritten}, nil
}

func (q *BooleanQuery) ExtractTerms(terms map[Term]struct{}) {
	for _, c := range q.clauses {
		if c.Occur != MustNot {
			c.Query.ExtractTerms(terms)
		}
	}
}

func (q *BooleanQuery) String() string {
	parts := make([]string, len(q.clauses))
	for i, c := range q.clauses {
		parts[i] = c.Occur.String() + c.Query.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (q *BooleanQuery) CreateWeight(s *Searcher) (Weight, error) {
	w := &booleanWeight{query: q, weights: make([]Weight, len(q.clauses))}
	for i, c := range q.clauses {
		sub, err := c.Query.CreateWeight(s)
		if err != nil {
			return nil, err
		}
		w.weights[i] = sub
	}
	return w, nil
}

type booleanWeight struct {
	query   *BooleanQuery
	weights []Weight
}

func (w *booleanWeight) Query() Query { return w.query }

func (w *booleanWeight) Value() float32 {
	var sum float32
	for i, sub := range w.weights {
		if w.query.clauses[i].Occur != MustNot {
			sum += sub.Value()
		}
	}
	return sum
}

func (w *booleanWeight) Scorer(r index.Reader) (Scorer, error) {
	var required, optional, prohibited []Scorer
	for i, sub := range w.weights {
		s, err := sub.Scorer(r)
		if err != nil {
			return nil, err
		}
		switch w.query.clauses[i].Occur {
		case Must:
			required = append(required, s)
		case Should:
			optional = append(optional, s)
		case MustNot:
			prohibited = append(prohibited, s)
		}
	}

	var s Scorer
	switch {
	case len(required) > 0:
		s = conjunction(required)
		if len(optional) > 0 {
			s = &reqOptScorer{req: s, opt: disjunction(optional)}
		}
	case len(optional) > 0:
		s = disjunction(optional)
	case len(prohibited) > 0:
		s = &allScorer{maxDoc: r.MaxDoc(), doc: -1}
	default:
		return &emptyScorer{}, nil
	}
	if len(prohibited) > 0 {
		s = &reqExclScorer{req: s, excl: disjunction(prohibited)}
	}
	return s, nil
}

func (w *booleanWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	e := &Explanation{Description: "sum of:"}
	matchedRequired := true
	matchedAny := false
	onlyProhibited := true
	for i, sub := range w.weights {
		occur := w.query.clauses[i].Occur
		se, err := sub.Explain(r, doc)
		if err != nil {
			return nil, err
		}
		switch occur {
		case MustNot:
			if se.IsMatch() {
				return noMatch(fmt.Sprintf("excluded by %s", sub.Query())), nil
			}
			continue
		case Must:
			onlyProhibited = false
			if !se.IsMatch() {
				matchedRequired = false
			}
		case Should:
			onlyProhibited = false
		}
		if se.IsMatch() {
			matchedAny = true
			e.AddDetail(se)
			e.Value += se.Value
		}
	}
	if onlyProhibited {
		if doc < 0 || doc >= r.MaxDoc() {
			return noMatch(w.query.String()), nil
		}
		return &Explanation{Value: 1, Description: "not excluded by " + w.query.String()}, nil
	}
	if !matchedRequired || !matchedAny {
		return noMatch(w.query.String()), nil
	}
	return e, nil
}

func conjunction(scorers []Scorer) Scorer {
	if len(scorers) == 1 {
		return scorers[0]
	}
	return &conjunctionScorer{scorers: scorers, doc: -1}
}

func disjunction(scorers []Scorer) Scorer {
	if len(scorers) == 1 {
		return scorers[0]
	}
	return &disjunctionScorer{scorers: scorers, doc: -1}
}

// conjunctionScorer matches documents every sub-scorer matches.
type conjunctionScorer struct {
	scorers []Scorer
	doc     int
	started bool
}

func (s *conjunctionScorer) Next() (bool, error) {
	if s.doc == NoMoreDocs {
		return false, nil
	}
	if !s.started {
		s.started = true
		for _, sub := range s.scorers {
			ok, err := sub.Next()
			if err != nil || !ok {
				return s.exhaust(err)
			}
		}
		return s.align()
	}
	ok, err := s.scorers[0].Next()
	if err != nil || !ok {
		return s.exhaust(err)
	}
	return s.align()
}

func (s *conjunctionScorer) Advance(target int) (bool, error) {
	if s.doc == NoMoreDocs {
		return false, nil
	}
	s.started = true
	for _, sub := range s.scorers {
		if sub.Doc() >= target {
			continue
		}
		ok, err := sub.Advance(target)
		if err != nil || !ok {
			return s.exhaust(err)
		}
	}
	return s.align()
}

// align advances lagging scorers until all agree on a document.
func (s *conjunctionScorer) align() (bool, error) {
	for {
		top := -1
		for _, sub := range s.scorers {
			if sub.Doc() > top {
				top = sub.Doc()
			}
		}
		agreed := true
		for _, sub := range s.scorers {
			if sub.Doc() < top {
				agreed = false
				ok, err := sub.Advance(top)
				if err != nil || !ok {
					return s.exhaust(err)
				}
			}
		}
		if agreed {
			s.doc = top
			return true, nil
		}
	}
}

func (s *conjunctionScorer) exhaust(err error) (bool, error) {
	s.doc = NoMoreDocs
	return false, err
}

func (s *conjunctionScorer) Doc() int { return s.doc }

func (s *conjunctionScorer) Score() float32 {
	var sum float32
	for _, sub := range s.scorers {
		sum += sub.Score()
	}
	return sum
}

// disjunctionScorer matches documents any sub-scorer matches.
type disjunctionScorer struct {
	scorers []Scorer // live sub-scorers
	doc     int
	started bool
}

func (s *disjunctionScorer) Next() (bool, error) {
	if s.doc == NoMoreDocs {
		return false, nil
	}
	if !s.started {
		s.started = true
		return s.step(func(sub Scorer) (bool, error) { return sub.Next() })
	}
	cur := s.doc
	return s.step(func(sub Scorer) (bool, error) {
		if sub.Doc() != cur {
			return true, nil
		}
		return sub.Next()
	})
}

func (s *disjunctionScorer) Advance(target int) (bool, error) {
	if s.doc == NoMoreDocs {
		return false, nil
	}
	s.started = true
	return s.step(func(sub Scorer) (bool, error) {
		if sub.Doc() >= target {
			return true, nil
		}
		return sub.Advance(target)
	})
}

// step applies move to every live sub-scorer, drops exhausted ones and
// positions on the smallest remaining document.
func (s *disjunctionScorer) step(move func(Scorer) (bool, error)) (bool, error) {
	live := s.scorers[:0]
	for _, sub := range s.scorers {
		ok, err := move(sub)
		if err != nil {
			s.doc = NoMoreDocs
			return false, err
		}
		if ok {
			live = append(live, sub)
		}
	}
	s.scorers = live
	if len(live) == 0 {
		s.doc = NoMoreDocs
		return false, nil
	}
	s.doc = NoMoreDocs
	for _, sub := range live {
		if sub.Doc() < s.doc {
			s.doc = sub.Doc()
		}
	}
	return true, nil
}

func (s *disjunctionScorer) Doc() int { return s.doc }

func (s *disjunctionScorer) Score() float32 {
	var sum float32
	for _, sub := range s.scorers {
		if sub.Doc() == s.doc {
			sum += sub.Score()
		}
	}
	return sum
}

// reqExclScorer matches req documents that excl does not match.
type reqExclScorer struct {
	req  Scorer
	excl Scorer
	done bool // excl exhausted
}

func (s *reqExclScorer) Next() (bool, error) {
	ok, err := s.req.Next()
	if err != nil || !ok {
		return false, err
	}
	return s.skipExcluded()
}

func (s *reqExclScorer) Advance(target int) (bool, error) {
	ok, err := s.req.Advance(target)
	if err != nil || !ok {
		return false, err
	}
	return s.skipExcluded()
}

func (s *reqExclScorer) skipExcluded() (bool, error) {
	for {
		doc := s.req.Doc()
		if !s.done && s.excl.Doc() < doc {
			ok, err := s.excl.Advance(doc)
			if err != nil {
				return false, err
			}
			s.done = !ok
		}
		if s.done || s.excl.Doc() != doc {
			return true, nil
		}
		ok, err := s.req.Next()
		if err != nil || !ok {
			return false, err
		}
	}
}

func (s *reqExclScorer) Doc() int       { return s.req.Doc() }
func (s *reqExclScorer) Score() float32 { return s.req.Score() }

// reqOptScorer matches req documents and adds the score of opt where it also matches.
type reqOptScorer struct {
	req  Scorer
	opt  Scorer
	done bool // opt exhausted
}

func (s *reqOptScorer) Next() (bool, error) {
	ok, err := s.req.Next()
	if err != nil || !ok {
		return false, err
	}
	return true, s.positionOpt()
}

func (s *reqOptScorer) Advance(target int) (bool, error) {
	ok, err := s.req.Advance(target)
	if err != nil || !ok {
		return false, err
	}
	return true, s.positionOpt()
}

func (s *reqOptScorer) positionOpt() error {
	if s.done {
		return nil
	}
	doc := s.req.Doc()
	if s.opt.Doc() < doc {
		ok, err := s.opt.Advance(doc)
		if err != nil {
			return err
		}
		s.done = !ok
	}
	return nil
}

func (s *reqOptScorer) Doc() int { return s.req.Doc() }

func (s *reqOptScorer) Score() float32 {
	score := s.req.Score()
	if !s.done && s.opt.Doc() == s.req.Doc() {
		score += s.opt.Score()
	}
	return score
}
