package locator

// ValidationStatus is the lifecycle state of a Set.
type ValidationStatus string

const (
	StatusPending     ValidationStatus = "pending"
	StatusValidated   ValidationStatus = "validated"
	StatusNeedsReview ValidationStatus = "needs_review"
)

// Set is a finalized role → locator mapping, the unit the traversal
// engine consumes.
type Set struct {
	Locators   map[Role]string  `json:"locators" yaml:"locators"`
	Version    string           `json:"version" yaml:"version"`
	Confidence float64          `json:"confidence" yaml:"confidence"`
	Status     ValidationStatus `json:"status" yaml:"status"`
}

// NewSet returns an empty pending Set.
func NewSet(version string) *Set {
	return &Set{
		Locators: make(map[Role]string),
		Version:  version,
		Status:   StatusPending,
	}
}

// Locator returns the locator for a role, or "" when absent.
func (s *Set) Locator(role Role) string {
	if s == nil || s.Locators == nil {
		return ""
	}
	return s.Locators[role]
}

// Complete reports whether every required role has a non-empty locator.
// A crawl session must not start on an incomplete Set.
func (s *Set) Complete() bool {
	for _, role := range RequiredRoles() {
		if s.Locator(role) == "" {
			return false
		}
	}
	return true
}

// MissingRoles lists required roles with no locator, in canonical order.
func (s *Set) MissingRoles() []Role {
	var missing []Role
	for _, role := range RequiredRoles() {
		if s.Locator(role) == "" {
			missing = append(missing, role)
		}
	}
	return missing
}
