package search

import (
	"fmt"

	"github.com/aidanlsb/corvid/internal/index"
)

// ChildAxisQuery selects the children (or all descendants) of the nodes
// matched by a context query, optionally restricted by name. A nil context
// stands for the repository root, whose children are the top-level nodes.
type ChildAxisQuery struct {
	context     Query
	nameTest    string
	descendants bool
}

// NewChildAxisQuery creates a path step query. An empty or "*" name test
// matches any name.
func NewChildAxisQuery(context Query, nameTest string, descendants bool) *ChildAxisQuery {
	if nameTest == "*" {
		nameTest = ""
	}
	return &ChildAxisQuery{context: context, nameTest: nameTest, descendants: descendants}
}

func (q *ChildAxisQuery) Context() Query    { return q.context }
func (q *ChildAxisQuery) NameTest() string  { return q.nameTest }
func (q *ChildAxisQuery) Descendants() bool { return q.descendants }

func (q *ChildAxisQuery) Rewrite(r index.Reader) (Query, error) {
	if q.context == nil {
		return q, nil
	}
	c, err := q.context.Rewrite(r)
	if err != nil {
		return nil, err
	}
	if c == q.context {
		return q, nil
	}
	return &ChildAxisQuery{context: c, nameTest: q.nameTest, descendants: q.descendants}, nil
}

func (q *ChildAxisQuery) ExtractTerms(terms map[Term]struct{}) {
	if q.context != nil {
		q.context.ExtractTerms(terms)
	}
}

func (q *ChildAxisQuery) String() string {
	axis := "/"
	if q.descendants {
		axis = "//"
	}
	name := q.nameTest
	if name == "" {
		name = "*"
	}
	ctx := ""
	if q.context != nil {
		ctx = q.context.String()
	}
	return fmt.Sprintf("ChildAxisQuery(%s%s%s)", ctx, axis, name)
}

func (q *ChildAxisQuery) CreateWeight(s *Searcher) (Weight, error) {
	w := &childAxisWeight{query: q}
	if q.context != nil {
		cw, err := q.context.CreateWeight(s)
		if err != nil {
			return nil, err
		}
		w.context = cw
	}
	return w, nil
}

type childAxisWeight struct {
	query   *ChildAxisQuery
	context Weight // nil for the repository root
}

func (w *childAxisWeight) Query() Query   { return w.query }
func (w *childAxisWeight) Value() float32 { return 1 }

func (w *childAxisWeight) Scorer(r index.Reader) (Scorer, error) {
	var cs Scorer
	if w.context != nil {
		var err error
		if cs, err = w.context.Scorer(r); err != nil {
			return nil, err
		}
	}
	return &lazySetScorer{eval: func() (*index.PostingSet, error) {
		return w.evaluate(r, cs)
	}, doc: -1}, nil
}

func (w *childAxisWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	return explainByScoring(w, r, doc)
}

func (w *childAxisWeight) evaluate(r index.Reader, context Scorer) (*index.PostingSet, error) {
	var parents []string
	if context == nil {
		parents = []string{""}
	} else {
		set, err := CollectSet(context)
		if err != nil {
			return nil, err
		}
		if parents, err = identifiers(r, set); err != nil {
			return nil, err
		}
	}

	result := index.NewPostingSet()
	frontier := parents
	for len(frontier) > 0 {
		found := index.NewPostingSet()
		for _, id := range frontier {
			children, err := r.Postings(index.FieldParent, id)
			if err != nil {
				return nil, err
			}
			found.Or(children)
		}
		found.AndNot(result)
		result.Or(found)
		if !w.query.descendants || found.IsEmpty() {
			break
		}
		var err error
		if frontier, err = identifiers(r, found); err != nil {
			return nil, err
		}
	}

	if w.query.nameTest != "" {
		named, err := r.Postings(index.FieldLabel, w.query.nameTest)
		if err != nil {
			return nil, err
		}
		result.And(named)
	}
	return result, nil
}

// identifiers returns the stored node identifiers of docs.
func identifiers(r index.Reader, docs *index.PostingSet) ([]string, error) {
	ids := make([]string, 0, docs.Len())
	var readErr error
	docs.ForEach(func(doc int) bool {
		d, err := r.Document(doc)
		if err != nil {
			readErr = err
			return false
		}
		ids = append(ids, d.Get(index.FieldUUID))
		return true
	})
	return ids, readErr
}

// lazySetScorer computes its posting set on first use and walks it with a
// constant score of 1.
type lazySetScorer struct {
	eval func() (*index.PostingSet, error)
	set  *index.PostingSet
	doc  int
}

func (s *lazySetScorer) Next() (bool, error) {
	if err := s.load(); err != nil {
		return false, err
	}
	if s.doc == NoMoreDocs {
		return false, nil
	}
	return s.position(s.set.NextMember(s.doc + 1)), nil
}

func (s *lazySetScorer) Advance(target int) (bool, error) {
	if err := s.load(); err != nil {
		return false, err
	}
	return s.position(s.set.NextMember(target)), nil
}

func (s *lazySetScorer) load() error {
	if s.set != nil {
		return nil
	}
	set, err := s.eval()
	if err != nil {
		return err
	}
	s.set = set
	return nil
}

func (s *lazySetScorer) position(next int) bool {
	if next < 0 {
		s.doc = NoMoreDocs
		return false
	}
	s.doc = next
	return true
}

func (s *lazySetScorer) Doc() int       { return s.doc }
func (s *lazySetScorer) Score() float32 { return 1 }
