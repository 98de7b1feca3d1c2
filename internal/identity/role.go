package identity

// Kind enumerates the audiences the assistant serves
type Kind string

const (
	KindPublic  Kind = "public"
	KindStudent Kind = "student"
	KindAdmin   Kind = "admin"
)

// RoleDescriptor describes who is asking. It is derived once per request
// from credential material and never persisted
type RoleDescriptor struct {
	Kind        Kind
	IdentityID  string // set for student and admin
	DisplayName string // set for student and admin
	AcademicID  string // set for student only
}

// Public returns the descriptor used for anonymous visitors
func Public() RoleDescriptor {
	return RoleDescriptor{Kind: KindPublic}
}

// Authenticated reports whether the descriptor carries a verified identity
func (r RoleDescriptor) Authenticated() bool {
	return r.Kind == KindStudent || r.Kind == KindAdmin
}

// Identifier returns the quota/session key for authenticated roles.
// Anonymous visitors are identified by their session id instead, so this
// returns empty for them
func (r RoleDescriptor) Identifier() string {
	if !r.Authenticated() {
		return ""
	}
	return "user_" + r.IdentityID
}
