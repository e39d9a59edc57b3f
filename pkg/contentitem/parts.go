package contentitem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"
)

// PartNamer lets a part type choose the name it is stored under. The method
// is called on a zero value and must not depend on its state.
type PartNamer interface {
	PartName() string
}

// NameOf returns the name a part of type T is stored under: the result of
// PartName when *T implements PartNamer, otherwise the Go type name.
func NameOf[T any]() string {
	var zero T
	if n, ok := any(&zero).(PartNamer); ok {
		return n.PartName()
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if name := t.Name(); name != "" {
		return name
	}
	return t.String()
}

// As returns the part of type T, or nil if the item has no such part.
func As[T any](item *ContentItem) *T {
	part, err := GetNamed[T](item, NameOf[T]())
	if err != nil {
		return nil
	}
	return part
}

// Get returns the part of type T. Unlike As it reports why a part could not
// be returned: ErrPartNotFound, ErrPartTypeMismatch or ErrNilContentItem.
func Get[T any](item *ContentItem) (*T, error) {
	return GetNamed[T](item, NameOf[T]())
}

// GetNamed returns the part stored under name decoded as T.
func GetNamed[T any](item *ContentItem, name string) (*T, error) {
	if item == nil {
		return nil, ErrNilContentItem
	}
	item.mu.Lock()
	defer item.mu.Unlock()
	return getLocked[T](item, name)
}

// getLocked looks up and, for raw entries, decodes and caches the part.
// item.mu must be held.
func getLocked[T any](item *ContentItem, name string) (*T, error) {
	v, ok := item.parts[name]
	if !ok {
		return nil, &PartError{Part: name, Op: "get", Err: ErrPartNotFound}
	}

	switch p := v.(type) {
	case *T:
		return p, nil
	case json.RawMessage:
		part := new(T)
		if err := json.Unmarshal(p, part); err != nil {
			return nil, &PartError{Part: name, Op: "decode", Err: fmt.Errorf("%w: %v", ErrPartTypeMismatch, err)}
		}
		item.parts[name] = part
		return part, nil
	default:
		return nil, &PartError{
			Part: name,
			Op:   "get",
			Err:  fmt.Errorf("%w: stored %T, requested %T", ErrPartTypeMismatch, v, (*T)(nil)),
		}
	}
}

// getOrCreate returns the part stored under name, storing a new zero part
// only when none is present. A stored part that cannot be read as T is left
// untouched and reported as a *PartError.
func getOrCreate[T any](item *ContentItem, name string) (*T, error) {
	if item == nil {
		return nil, ErrNilContentItem
	}
	item.mu.Lock()
	defer item.mu.Unlock()

	part, err := getLocked[T](item, name)
	if err == nil {
		return part, nil
	}
	if !errors.Is(err, ErrPartNotFound) {
		return nil, err
	}
	part = new(T)
	item.setPart(name, part)
	return part, nil
}

// GetOrCreate returns the part of type T, storing a new zero part when the
// item has none. The item must not be nil.
//
// A part stored under T's name that cannot be read as T is never replaced:
// GetOrCreate panics with its *PartError, like a failed type assertion.
// Use Get first when the stored shape is not trusted.
func GetOrCreate[T any](item *ContentItem) *T {
	return GetOrCreateNamed[T](item, NameOf[T]())
}

// GetOrCreateNamed is GetOrCreate with an explicit part name.
func GetOrCreateNamed[T any](item *ContentItem, name string) *T {
	part, err := getOrCreate[T](item, name)
	if err != nil {
		panic(err)
	}
	return part
}

// Weld attaches part under its type's name unless a part of that name is
// already present. Repeated welds leave the first value in place. A nil part
// is ignored.
func Weld[T any](item *ContentItem, part *T) *ContentItem {
	return WeldNamed(item, NameOf[T](), part)
}

// WeldNamed is Weld with an explicit part name.
func WeldNamed[T any](item *ContentItem, name string, part *T) *ContentItem {
	if part == nil {
		return item
	}
	item.mu.Lock()
	defer item.mu.Unlock()
	if _, ok := item.parts[name]; !ok {
		item.setPart(name, part)
	}
	return item
}

// Apply stores part under its type's name, replacing any existing part.
// A nil part is ignored.
func Apply[T any](item *ContentItem, part *T) *ContentItem {
	return ApplyNamed(item, NameOf[T](), part)
}

// ApplyNamed is Apply with an explicit part name.
func ApplyNamed[T any](item *ContentItem, name string, part *T) *ContentItem {
	if part == nil {
		return item
	}
	item.mu.Lock()
	defer item.mu.Unlock()
	item.setPart(name, part)
	return item
}

// Alter gets or creates the part of type T, passes it to fn and applies it
// back to the item. The apply runs even if fn panics. Like GetOrCreate, Alter
// panics without calling fn when the stored part cannot be read as T.
func Alter[T any](item *ContentItem, fn func(*T)) *ContentItem {
	return AlterNamed(item, NameOf[T](), fn)
}

// AlterNamed is Alter with an explicit part name.
func AlterNamed[T any](item *ContentItem, name string, fn func(*T)) *ContentItem {
	part := GetOrCreateNamed[T](item, name)
	defer ApplyNamed(item, name, part)
	fn(part)
	return item
}

// AlterContext is the blocking form of the asynchronous alter. The part is
// applied after fn returns whether or not fn failed; fn's error is returned
// unchanged. When the stored part cannot be read as T, fn is not called, the
// item is left as it was and the *PartError is returned.
func AlterContext[T any](ctx context.Context, item *ContentItem, fn func(context.Context, *T) error) (*ContentItem, error) {
	name := NameOf[T]()
	part, err := getOrCreate[T](item, name)
	if err != nil {
		return item, err
	}
	defer ApplyNamed(item, name, part)
	if err := fn(ctx, part); err != nil {
		return item, err
	}
	return item, nil
}

// Pending is an alter running in the background.
type Pending struct {
	item *ContentItem
	g    *errgroup.Group
}

// Wait blocks until the alter finished and returns the item together with
// the callback's error.
func (p *Pending) Wait() (*ContentItem, error) {
	err := p.g.Wait()
	return p.item, err
}

// AlterAsync runs AlterContext on its own goroutine. The item must not be
// touched by the caller until Wait returns.
func AlterAsync[T any](ctx context.Context, item *ContentItem, fn func(context.Context, *T) error) *Pending {
	g, gctx := errgroup.WithContext(ctx)
	p := &Pending{item: item, g: g}
	g.Go(func() error {
		_, err := AlterContext(gctx, item, fn)
		return err
	})
	return p
}
