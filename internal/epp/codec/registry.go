package codec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/beevik/etree"
)

// Kind separates object mappings from protocol extensions. Login advertises
// the first as objURI and the second as extURI.
type Kind int

const (
	KindObject Kind = iota
	KindExtension
)

// Factory instantiates the components of one namespace by local name.
type Factory interface {
	Namespace() Namespace
	Kind() Kind
	New(local string) (Component, bool)
}

// Constructors maps a local element name to a constructor.
type Constructors map[string]func() Component

type factory struct {
	ns    Namespace
	kind  Kind
	ctors Constructors
}

// NewFactory returns a Factory backed by a constructor table.
func NewFactory(ns Namespace, kind Kind, ctors Constructors) Factory {
	return &factory{ns: ns, kind: kind, ctors: ctors}
}

func (f *factory) Namespace() Namespace { return f.ns }
func (f *factory) Kind() Kind           { return f.kind }

func (f *factory) New(local string) (Component, bool) {
	ctor, ok := f.ctors[local]
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Registry dispatches elements to the factory that claims their namespace.
// Register during start-up; lookups are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	byURI map[string]Factory
}

// NewRegistry returns a Registry holding fs.
func NewRegistry(fs ...Factory) (*Registry, error) {
	r := &Registry{byURI: make(map[string]Factory)}
	for _, f := range fs {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds f. A namespace can be claimed once.
func (r *Registry) Register(f Factory) error {
	uri := f.Namespace().URI
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byURI[uri]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNamespace, uri)
	}
	r.byURI[uri] = f
	return nil
}

// Lookup returns the factory claiming uri.
func (r *Registry) Lookup(uri string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.byURI[uri]
	return f, ok
}

// New instantiates the component matching el without decoding it.
func (r *Registry) New(el *etree.Element) (Component, error) {
	uri, local := QName(el)
	f, ok := r.Lookup(uri)
	if !ok {
		return nil, decodeErr(el.FullTag(), ErrUnknownElement, "no factory for namespace "+uri)
	}
	c, ok := f.New(local)
	if !ok {
		return nil, decodeErr(el.FullTag(), ErrUnknownElement, "namespace "+uri+" has no element "+local)
	}
	return c, nil
}

// Decode instantiates and decodes the component matching el.
func (r *Registry) Decode(el *etree.Element) (Component, error) {
	c, err := r.New(el)
	if err != nil {
		return nil, err
	}
	if err := c.Decode(el); err != nil {
		return nil, err
	}
	return c, nil
}

// DecodeChildren decodes every child element of el.
func (r *Registry) DecodeChildren(el *etree.Element) ([]Component, error) {
	if el == nil {
		return nil, nil
	}
	var out []Component
	for _, c := range el.ChildElements() {
		comp, err := r.Decode(c)
		if err != nil {
			return nil, err
		}
		out = append(out, comp)
	}
	return out, nil
}

// DecodeChildrenOrRaw decodes every child element of el, keeping elements
// from unclaimed namespaces as *Raw. Elements of a claimed namespace still
// fail when they do not decode.
func (r *Registry) DecodeChildrenOrRaw(el *etree.Element) ([]Component, error) {
	if el == nil {
		return nil, nil
	}
	var out []Component
	for _, c := range el.ChildElements() {
		var comp Component
		var err error
		if _, ok := r.Lookup(c.NamespaceURI()); ok {
			comp, err = r.Decode(c)
		} else {
			comp, err = DecodeRaw(c)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, comp)
	}
	return out, nil
}

// URIs returns the namespaces of the given kind, sorted.
func (r *Registry) URIs(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for uri, f := range r.byURI {
		if f.Kind() == kind {
			out = append(out, uri)
		}
	}
	sort.Strings(out)
	return out
}
