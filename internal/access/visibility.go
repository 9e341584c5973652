package access

// Visibility scopes the corpus a caller may see. The zero value sees nothing.
type Visibility struct {
	All     bool
	OwnerID string
}

// VisibilityFor returns the scope for id: teachers see their own uploads,
// students see everything.
func VisibilityFor(id Identity) Visibility {
	switch id.Role {
	case RoleStudent:
		return Visibility{All: true}
	case RoleTeacher:
		return Visibility{OwnerID: id.UserID}
	default:
		return Visibility{}
	}
}

// Allows reports whether a document owned by ownerID is visible.
func (v Visibility) Allows(ownerID string) bool {
	if v.All {
		return true
	}
	return v.OwnerID != "" && v.OwnerID == ownerID
}
