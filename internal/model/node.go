// Package model defines the content items stored and indexed by corvid.
package model

// Node is a single content item in the repository.
// Nodes form a tree through ParentID; top-level nodes have an empty ParentID.
type Node struct {
	// ID is the stable identifier of the node (a UUID for imported content).
	// Reference properties point at other nodes through this value.
	ID string `json:"id"`

	// Name is the node's label, used by name tests in path and deref steps.
	Name string `json:"name"`

	// Type is the primary node type (e.g., "page", "folder", "person").
	Type string `json:"type"`

	// ParentID is the ID of the parent node, empty for top-level nodes.
	ParentID string `json:"parent_id,omitempty"`

	// Path is the slash-separated location of the node in the repository.
	Path string `json:"path"`

	// Properties are the node's typed property values.
	Properties []Property `json:"properties,omitempty"`

	// Body is the free-text content of the node.
	Body string `json:"body,omitempty"`
}

// IsRoot reports whether the node sits at the top of the tree.
func (n *Node) IsRoot() bool { return n.ParentID == "" }

// Property returns the named property.
func (n *Node) Property(name string) (Property, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// References returns the target identifiers of the named reference property.
// Non-reference properties yield nil.
func (n *Node) References(name string) []string {
	p, ok := n.Property(name)
	if !ok || p.Type != PropertyReference {
		return nil
	}
	return p.Values
}

// ReferenceProperties returns all reference-typed properties of the node.
func (n *Node) ReferenceProperties() []Property {
	var out []Property
	for _, p := range n.Properties {
		if p.Type == PropertyReference {
			out = append(out, p)
		}
	}
	return out
}

// SetProperty replaces or appends a property.
func (n *Node) SetProperty(p Property) {
	for i := range n.Properties {
		if n.Properties[i].Name == p.Name {
			n.Properties[i] = p
			return
		}
	}
	n.Properties = append(n.Properties, p)
}
