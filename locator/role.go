// Package locator turns AI-suggested per-field selectors into a validated
// locator set: scoring candidates against a parsed page, repairing weak
// ones with bounded local moves, and falling back to a literal pattern
// catalog when nothing else matches.
package locator

// Role is a semantic field a locator must resolve within a listing page.
type Role string

const (
	ListContainer Role = "listContainer"
	ItemContainer Role = "itemContainer"
	Title         Role = "title"
	Link          Role = "link"
	Company       Role = "company"
	PublishedAt   Role = "publishedAt"
	Location      Role = "location"
	Description   Role = "description"
	NextPage      Role = "nextPage"
)

// Roles returns all roles in their canonical order. Iteration order
// matters: validation notes and suggestions must be deterministic.
func Roles() []Role {
	return []Role{
		ListContainer, ItemContainer, Title, Link, Company,
		PublishedAt, Location, Description, NextPage,
	}
}

// RequiredRoles are the roles a Set must carry before a crawl session may
// start.
func RequiredRoles() []Role {
	return []Role{ListContainer, ItemContainer, Title}
}
