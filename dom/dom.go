// Package dom exposes the document-query capability the locator and
// extraction layers depend on. Locator synthesis only ever needs to ask
// "what matches this selector" and read text, attributes, and parents, so
// that surface is an explicit interface rather than a concrete HTML
// library leaking through every package.
package dom

// Document is a parsed page.
type Document interface {
	// Select returns all elements matching a CSS selector, in document
	// order. Invalid selector syntax returns an error, never panics.
	Select(selector string) ([]Element, error)

	// BaseURL is the URL the document was loaded from. Used to resolve
	// relative links. May be empty for synthetic documents.
	BaseURL() string
}

// Element is a single element within a Document.
type Element interface {
	// Text returns the element's visible text, whitespace-trimmed.
	Text() string

	// Attr returns an attribute value and whether the attribute exists.
	Attr(name string) (string, bool)

	// Classes returns the element's class list.
	Classes() []string

	// Parent returns the parent element, or nil at the root.
	Parent() Element

	// Select runs a selector scoped to this element's descendants.
	Select(selector string) ([]Element, error)
}
