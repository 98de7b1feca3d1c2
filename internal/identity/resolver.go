package identity

import (
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the signed claim set carried by assistant identity tokens
type Claims struct {
	Role        string `json:"role"`
	Name        string `json:"name,omitempty"`
	AcademicID  string `json:"nim,omitempty"`
	jwt.RegisteredClaims
}

// Resolver turns inbound credentials into role descriptors
type Resolver struct {
	secret []byte
	issuer string
}

// NewResolver creates a resolver that validates tokens signed with the given secret
func NewResolver(secret, issuer string) *Resolver {
	return &Resolver{secret: []byte(secret), issuer: issuer}
}

// Resolve validates the credential and returns the matching role descriptor.
// A missing, malformed, or expired credential resolves to the public role;
// anonymous access is the default, not a failure
func (r *Resolver) Resolve(credential string) RoleDescriptor {
	if credential == "" {
		return Public()
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		log.Printf("[IDENTITY]: Rejecting credential, falling back to public: %v", err)
		return Public()
	}

	switch Kind(claims.Role) {
	case KindStudent:
		return RoleDescriptor{
			Kind:        KindStudent,
			IdentityID:  claims.Subject,
			DisplayName: claims.Name,
			AcademicID:  claims.AcademicID,
		}
	case KindAdmin:
		return RoleDescriptor{
			Kind:        KindAdmin,
			IdentityID:  claims.Subject,
			DisplayName: claims.Name,
		}
	default:
		return Public()
	}
}

// StudentToken mints a signed identity token for a student
func (r *Resolver) StudentToken(identityID, name, academicID string, ttl time.Duration) (string, error) {
	return r.sign(Claims{
		Role:       string(KindStudent),
		Name:       name,
		AcademicID: academicID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Issuer:    r.issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// AdminToken mints a signed identity token for an administrator
func (r *Resolver) AdminToken(identityID, name string, ttl time.Duration) (string, error) {
	return r.sign(Claims{
		Role: string(KindAdmin),
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Issuer:    r.issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

func (r *Resolver) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.secret)
}
