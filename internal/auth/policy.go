package auth

import "shopfront/internal/domain"

// Policy is a named role requirement attached to a route. An empty Role
// admits any authenticated identity.
type Policy struct {
	Name string
	Role domain.Role
}

var (
	AnyRole    = Policy{Name: "any"}
	BuyerOnly  = Policy{Name: "buyer", Role: domain.RoleBuyer}
	SellerOnly = Policy{Name: "seller", Role: domain.RoleSeller}
)

type AuthzError struct {
	Policy string
	Err    error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return "policy " + e.Policy + ": " + e.Err.Error()
}

func (e *AuthzError) Unwrap() error { return e.Err }

func (p Policy) Check(identity domain.Identity) error {
	if identity.ID.IsZero() {
		return domain.ErrUnauthenticated
	}
	if p.Role == "" || identity.Role == p.Role {
		return nil
	}
	return &AuthzError{Policy: p.Name, Err: domain.ErrForbidden}
}

// IsOwner reports whether the recorded owner of a resource is the acting
// identity. Ids are compared in canonical form; a zero id never owns anything.
func IsOwner(recorded, acting domain.ID) bool {
	if recorded.IsZero() || acting.IsZero() {
		return false
	}
	return recorded.Equal(acting)
}
