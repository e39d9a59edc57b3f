package contentitem

import (
	"reflect"
	"sync"
)

// TypedContentItem is embedded by typed views. It holds the item the view
// reads from and writes to; views never copy parts out of it.
//
//	type Article struct{ contentitem.TypedContentItem }
//
//	func (a Article) Title() string {
//		if p := contentitem.As[TitlePart](a.ContentItem()); p != nil {
//			return p.Title
//		}
//		return ""
//	}
type TypedContentItem struct {
	item *ContentItem
}

// NewTypedContentItem binds a view base to item.
func NewTypedContentItem(item *ContentItem) TypedContentItem {
	return TypedContentItem{item: item}
}

// ContentItem returns the backing item.
func (t TypedContentItem) ContentItem() *ContentItem {
	return t.item
}

// ViewRegistry maps view types to their constructors. It is safe for
// concurrent use.
type ViewRegistry struct {
	mu    sync.RWMutex
	ctors map[reflect.Type]any
}

// NewViewRegistry creates an empty registry.
func NewViewRegistry() *ViewRegistry {
	return &ViewRegistry{ctors: make(map[reflect.Type]any)}
}

var defaultViews = NewViewRegistry()

// DefaultViews returns the registry used by RegisterView and To.
func DefaultViews() *ViewRegistry {
	return defaultViews
}

// RegisterViewIn registers ctor as the constructor of view type V in r,
// replacing any previous registration.
func RegisterViewIn[V any](r *ViewRegistry, ctor func(*ContentItem) V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[reflect.TypeOf((*V)(nil)).Elem()] = ctor
}

// RegisterView registers ctor in the default registry.
func RegisterView[V any](ctor func(*ContentItem) V) {
	RegisterViewIn(defaultViews, ctor)
}

// Registered reports whether view type V has a constructor in r.
func Registered[V any](r *ViewRegistry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[reflect.TypeOf((*V)(nil)).Elem()]
	return ok
}

// ToIn projects item into view type V using the constructor registered in r.
func ToIn[V any](r *ViewRegistry, item *ContentItem) (V, error) {
	var zero V
	t := reflect.TypeOf((*V)(nil)).Elem()

	if item == nil {
		return zero, &ViewError{View: t.String(), Err: ErrNilContentItem}
	}

	r.mu.RLock()
	ctor, ok := r.ctors[t]
	r.mu.RUnlock()
	if !ok {
		return zero, &ViewError{View: t.String(), Err: ErrViewNotRegistered}
	}

	return ctor.(func(*ContentItem) V)(item), nil
}

// To projects item into view type V using the default registry. The view
// is live: reads and writes through it go to the item's parts.
func To[V any](item *ContentItem) (V, error) {
	return ToIn[V](defaultViews, item)
}

// MustTo is like To but panics on error.
func MustTo[V any](item *ContentItem) V {
	v, err := To[V](item)
	if err != nil {
		panic(err)
	}
	return v
}
