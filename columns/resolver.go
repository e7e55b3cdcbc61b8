package columns

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/bulkwrite"
	"github.com/syssam/bulkwrite/schema"
)

// Resolver builds property trees from a metadata provider and caches them
// per entity type. A cached tree is never handed out: every call receives a
// clone, so commands can bind values concurrently.
type Resolver struct {
	provider schema.Provider
	cache    sync.Map // reflect.Type -> *Tree
	group    singleflight.Group
}

// NewResolver returns a Resolver backed by the given provider.
func NewResolver(p schema.Provider) *Resolver {
	return &Resolver{provider: p}
}

// DefaultResolver resolves entities from `bulk` struct tags.
var DefaultResolver = NewResolver(schema.Tags{})

// Provider returns the metadata provider of r.
func (r *Resolver) Provider() schema.Provider {
	return r.provider
}

// Properties returns a private copy of the property tree of t, which must be
// a struct type or a pointer to one.
func (r *Resolver) Properties(t reflect.Type) (*Tree, error) {
	t = schema.Indirect(t)
	if v, ok := r.cache.Load(t); ok {
		return v.(*Tree).Clone(), nil
	}
	v, err, _ := r.group.Do(fmt.Sprintf("%p", t), func() (any, error) {
		if v, ok := r.cache.Load(t); ok {
			return v, nil
		}
		tree, err := r.build(t)
		if err != nil {
			return nil, err
		}
		v, _ := r.cache.LoadOrStore(t, tree)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tree).Clone(), nil
}

// Entity returns the metadata of t, resolving its tree if needed.
func (r *Resolver) Entity(t reflect.Type) (*schema.Entity, error) {
	t = schema.Indirect(t)
	if v, ok := r.cache.Load(t); ok {
		return v.(*Tree).Entity, nil
	}
	tree, err := r.Properties(t)
	if err != nil {
		return nil, err
	}
	return tree.Entity, nil
}

func (r *Resolver) build(t reflect.Type) (*Tree, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, bulkwrite.NewConfigurationError(schema.TypeName(t), "entity must be a struct type")
	}
	e, err := r.provider.Entity(t)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, bulkwrite.NewConfigurationError(schema.TypeName(t), "provider returned no mapping")
	}
	w := walker{entity: e, name: schema.TypeName(t)}
	props, err := w.walk(t, nil, "", 0)
	if err != nil {
		return nil, err
	}
	return &Tree{Type: t, Entity: e, Props: props}, nil
}

type walker struct {
	entity *schema.Entity
	name   string
}

// walk collects the storable members of t. index is the reflect path of t
// from the entity root, prefix its dotted name and depth the owned level.
func (w walker) walk(t reflect.Type, index []int, prefix string, depth int) ([]*Property, error) {
	props := make([]*Property, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		idx := append(append(make([]int, 0, len(index)+1), index...), i)
		ft := schema.Indirect(sf.Type)
		path := prefix + sf.Name
		if w.entity.Ignored(path) {
			continue
		}
		// Go embedding is not an owned level: promote the members.
		if sf.Anonymous && ft.Kind() == reflect.Struct && !schema.IsScalar(ft) && !w.entity.Owned(path) {
			children, err := w.walk(ft, idx, prefix, depth)
			if err != nil {
				return nil, err
			}
			props = append(props, children...)
			continue
		}
		switch {
		case w.entity.Owned(path):
			if depth > 0 {
				return nil, bulkwrite.NewMemberConfigurationError(w.name, path, "owned objects nested more than one level are not supported")
			}
			if ft.Kind() != reflect.Struct {
				return nil, bulkwrite.NewMemberConfigurationError(w.name, path, "owned member must be a struct, got "+ft.String())
			}
			children, err := w.walk(ft, idx, path+".", depth+1)
			if err != nil {
				return nil, err
			}
			props = append(props, &Property{Field: sf, Index: idx, Name: path, Children: children})
		case schema.IsScalar(ft):
			p := &Property{Field: sf, Index: idx, Name: path}
			if f, ok := w.entity.Field(path); ok {
				p.Column = f.Column
				p.SQLType = f.SQLType
				p.PrimaryKey = f.PrimaryKey
				p.Generated = f.Generated
			}
			props = append(props, p)
		case ft.Kind() == reflect.Struct:
			return nil, bulkwrite.NewMemberConfigurationError(w.name, path, "struct member "+ft.String()+" has no owned mapping")
		}
		// Slices, maps, interfaces and funcs are navigations or transient
		// state and are never stored.
	}
	return props, nil
}
