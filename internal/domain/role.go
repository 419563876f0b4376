package domain

const (
	RoleCandidate = "candidate"
	RoleAdmin     = "admin"
)

// ValidRole reports whether r is a role the API understands.
func ValidRole(r string) bool {
	return r == RoleCandidate || r == RoleAdmin
}
