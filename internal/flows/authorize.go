package flows

import "github.com/MrEthical07/tubeAuth/jwt"

// AuthorizeFailureKind classifies gate failures for root-level mapping.
type AuthorizeFailureKind int

const (
	AuthorizeFailureNone AuthorizeFailureKind = iota
	AuthorizeFailureMissing
	AuthorizeFailureToken
)

// AuthorizeResult carries verified claims or failure metadata.
type AuthorizeResult struct {
	Failure AuthorizeFailureKind
	Err     error
	Claims  *jwt.AccessClaims
}

// AuthorizeDeps captures gate dependencies. The gate is stateless: it never
// consults the credential store.
type AuthorizeDeps struct {
	ParseAccess func(token string) (*jwt.AccessClaims, error)
}

// RunAuthorize checks the access token's signature, issuer and expiry and
// returns its claims. A revoked session stays authorized until the access
// token expires.
func RunAuthorize(token string, deps AuthorizeDeps) AuthorizeResult {
	if token == "" {
		return AuthorizeResult{Failure: AuthorizeFailureMissing}
	}
	claims, err := deps.ParseAccess(token)
	if err != nil {
		return AuthorizeResult{Failure: AuthorizeFailureToken, Err: err}
	}
	return AuthorizeResult{Claims: claims}
}
