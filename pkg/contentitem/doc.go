// Package contentitem provides a schema-less content item made of named
// parts, typed helpers to read and change those parts, typed views over an
// item, and a service that persists items with pluggable repository and
// snapshot storage backends.
//
// # Parts
//
// A part is any Go struct stored under a name, by default its type name:
//
//	type TitlePart struct{ Title string }
//
//	item := contentitem.New("Article")
//	contentitem.Weld(item, &TitlePart{Title: "Hello"})   // insert if absent
//	contentitem.Apply(item, &TitlePart{Title: "Hi"})     // overwrite
//	contentitem.Alter(item, func(p *TitlePart) { p.Title += "!" })
//	title := contentitem.As[TitlePart](item)             // nil when absent
//
// Parts loaded from JSON stay raw until first typed access, then the decoded
// value replaces the raw entry. Types may pick their stored name by
// implementing PartNamer.
//
// # Views
//
// A view is a Go type built from an item that reads and writes the item's
// parts directly. Views embed TypedContentItem, register a constructor with
// RegisterView and are obtained with To.
//
// # Persistence
//
// Implementations of Repository (memory, Postgres) and BlobStore snapshot
// backends (memory, filesystem, S3) are provided under subpackages.
package contentitem
