package index

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aidanlsb/corvid/internal/dates"
	"github.com/aidanlsb/corvid/internal/model"
)

// NodeSource yields nodes in storage order.
type NodeSource interface {
	Scan(ctx context.Context, fn func(*model.Node) error) error
}

// Builder accumulates documents for a new Snapshot.
// A Builder is not safe for concurrent use and must not be used after Build.
type Builder struct {
	generation int64
	analyzer   *Analyzer
	docs       []*Document
	fields     map[string]*fieldIndex
}

// NewBuilder creates a builder for a snapshot of the given store generation.
func NewBuilder(generation int64) *Builder {
	return &Builder{
		generation: generation,
		analyzer:   NewAnalyzer(),
		fields:     make(map[string]*fieldIndex),
	}
}

// Add indexes a node and returns its document identifier.
// Identifiers are assigned densely in the order nodes are added.
func (b *Builder) Add(n *model.Node) int {
	doc := len(b.docs)
	d := NewDocument()
	b.docs = append(b.docs, d)

	b.keyword(d, doc, FieldUUID, n.ID)
	b.keyword(d, doc, FieldLabel, n.Name)
	b.keyword(d, doc, FieldPrimaryType, n.Type)
	b.keyword(d, doc, FieldParent, n.ParentID)
	b.keyword(d, doc, FieldPath, n.Path)

	b.text(doc, "", n.Name)
	b.text(doc, "", n.Body)

	for _, p := range n.Properties {
		b.term(doc, FieldPropertiesSet, p.Name)
		for _, v := range p.Values {
			d.Add(FieldProperties, NamedValue(p.Name, v))
			b.term(doc, FieldProperties, NamedValue(p.Name, PropertyTerm(p.Type, v)))
			switch p.Type {
			case model.PropertyReference:
				d.Add(FieldReferences, NamedValue(p.Name, v))
			case model.PropertyString:
				b.text(doc, p.Name, v)
			}
		}
	}
	return doc
}

// Build freezes the accumulated documents into a Snapshot.
func (b *Builder) Build() *Snapshot {
	for _, fi := range b.fields {
		fi.terms = make([]string, 0, len(fi.postings))
		for term := range fi.postings {
			fi.terms = append(fi.terms, term)
		}
		sort.Strings(fi.terms)
	}
	s := &Snapshot{generation: b.generation, docs: b.docs, fields: b.fields}
	b.docs = nil
	b.fields = nil
	return s
}

// FromSource builds a snapshot from every node of src.
func FromSource(ctx context.Context, src NodeSource, generation int64) (*Snapshot, error) {
	b := NewBuilder(generation)
	err := src.Scan(ctx, func(n *model.Node) error {
		b.Add(n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}
	return b.Build(), nil
}

// PropertyTerm returns the index term for a property value of type t.
// Numbers use EncodeNumber and dates their canonical form, so that term
// order matches value order; values that do not parse are indexed verbatim.
func PropertyTerm(t model.PropertyType, value string) string {
	switch t {
	case model.PropertyNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return EncodeNumber(f)
		}
	case model.PropertyBoolean:
		return strings.ToLower(strings.TrimSpace(value))
	case model.PropertyDate:
		if c, ok := dates.Canonical(value); ok {
			return c
		}
	}
	return value
}

// keyword stores value and indexes it as a single untokenised term.
func (b *Builder) keyword(d *Document, doc int, field, value string) {
	d.Add(field, value)
	b.term(doc, field, value)
}

func (b *Builder) term(doc int, field, term string) {
	fi, ok := b.fields[field]
	if !ok {
		fi = newFieldIndex()
		b.fields[field] = fi
	}
	p, ok := fi.postings[term]
	if !ok {
		p = NewPostingSet()
		fi.postings[term] = p
	}
	p.Add(doc)
}

// text indexes analysed tokens into the full-text field. Tokens of a
// property are indexed both bare and scoped to the property.
func (b *Builder) text(doc int, property, text string) {
	for _, tok := range b.analyzer.Tokens(text) {
		b.fulltextTerm(doc, tok)
		if property != "" {
			b.fulltextTerm(doc, NamedValue(property, tok))
		}
	}
}

func (b *Builder) fulltextTerm(doc int, term string) {
	b.term(doc, FieldFulltext, term)
	fi := b.fields[FieldFulltext]
	if fi.freqs == nil {
		fi.freqs = make(map[string]map[int]int)
	}
	m, ok := fi.freqs[term]
	if !ok {
		m = make(map[int]int)
		fi.freqs[term] = m
	}
	m[doc]++
}
