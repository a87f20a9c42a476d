package index

import "sort"

// Document holds the stored fields of one indexed node.
type Document struct {
	fields map[string][]string
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{fields: make(map[string][]string)}
}

// Add appends a stored value to a field.
func (d *Document) Add(field, value string) {
	d.fields[field] = append(d.fields[field], value)
}

// Values returns all stored values of a field, or nil when the field is absent.
func (d *Document) Values(field string) []string {
	return d.fields[field]
}

// Get returns the first stored value of a field, or "".
func (d *Document) Get(field string) string {
	if v := d.fields[field]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Fields returns the names of the stored fields in sorted order.
func (d *Document) Fields() []string {
	names := make([]string, 0, len(d.fields))
	for name := range d.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PropertyValues returns the stored values of a node property.
func (d *Document) PropertyValues(name string) []string {
	prefix := NamedValuePrefix(name)
	var out []string
	for _, entry := range d.fields[FieldProperties] {
		if len(entry) >= len(prefix) && entry[:len(prefix)] == prefix {
			out = append(out, entry[len(prefix):])
		}
	}
	return out
}
