package index

import "errors"

// ErrDocumentOutOfRange is returned when a document identifier is not part of the snapshot.
var ErrDocumentOutOfRange = errors.New("document out of range")

// Reader gives read access to one immutable index snapshot.
//
// All methods may be called concurrently. Posting sets returned by a Reader
// must not be modified.
type Reader interface {
	// MaxDoc returns one greater than the largest document identifier.
	MaxDoc() int

	// NumDocs returns the number of documents in the snapshot.
	NumDocs() int

	// Generation identifies the store state the snapshot was built from.
	Generation() int64

	// Document returns the stored fields of doc.
	Document(doc int) (*Document, error)

	// Postings returns the documents indexed under term in field.
	// An unknown term yields an empty set.
	Postings(field, term string) (*PostingSet, error)

	// Terms calls fn for every term of field that starts with prefix, in
	// ascending order, until fn returns false.
	Terms(field, prefix string, fn func(term string, postings *PostingSet) bool) error

	// DocFreq returns the number of documents containing term.
	DocFreq(field, term string) (int, error)

	// TermFreq returns how often term occurs in doc.
	TermFreq(field, term string, doc int) (int, error)
}
