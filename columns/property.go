package columns

import (
	"reflect"

	"github.com/syssam/bulkwrite/schema"
)

// Property is one storable member of an entity, or of an owned object of it.
//
// A Property is either a leaf, with a column and no children, or complex
// (an owned object), with children and no column. Leaves whose member has no
// mapping keep an empty Column and are dropped by Filter.
type Property struct {
	Field reflect.StructField
	// Index is the reflect field path from the entity root.
	Index []int
	// Name is the dotted Go member path, e.g. "Address.City".
	Name       string
	Column     string
	SQLType    string
	PrimaryKey bool
	Generated  bool
	Children   []*Property

	// Value is the member value extracted by BindValues. It is only
	// meaningful during one binding pass of one command.
	Value any
}

// IsComplex reports whether p is an owned object.
func (p *Property) IsComplex() bool {
	return p.Children != nil
}

// Owner returns the dotted name of the owned object p belongs to, or "" for
// top-level members.
func (p *Property) Owner() string {
	for i := len(p.Name) - 1; i >= 0; i-- {
		if p.Name[i] == '.' {
			return p.Name[:i]
		}
	}
	return ""
}

func (p *Property) clone() *Property {
	c := *p
	c.Value = nil
	c.Index = append([]int(nil), p.Index...)
	if p.Children != nil {
		c.Children = cloneProps(p.Children)
	}
	return &c
}

func cloneProps(props []*Property) []*Property {
	out := make([]*Property, len(props))
	for i, p := range props {
		out[i] = p.clone()
	}
	return out
}

// Tree is the resolved property tree of one entity type.
type Tree struct {
	Type   reflect.Type
	Entity *schema.Entity
	Props  []*Property
}

// Clone returns a deep copy of t whose properties can be mutated freely.
func (t *Tree) Clone() *Tree {
	return &Tree{Type: t.Type, Entity: t.Entity, Props: cloneProps(t.Props)}
}

// Leaves returns every mapped leaf of the tree.
func (t *Tree) Leaves() []*Property {
	return Flatten(Filter(t.Props, Policy{}))
}

// Lookup returns the leaf or owned object with the given dotted name.
func (t *Tree) Lookup(name string) (*Property, bool) {
	return lookup(t.Props, name)
}

func lookup(props []*Property, name string) (*Property, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
		if p.IsComplex() {
			if c, ok := lookup(p.Children, name); ok {
				return c, true
			}
		}
	}
	return nil, false
}
