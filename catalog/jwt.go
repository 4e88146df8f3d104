package catalog

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reqrep/transform/messagecontext"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" if the header is absent or not a Bearer scheme.
func bearerToken(c messagecontext.Buffered) string {
	auth := c.Header("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimPrefix(auth, prefix)
}

// JWTClaimHeader projects one claim out of the caller's bearer token into
// a new outbound header, without verifying the token's signature —
// authentication itself is out of scope; this only forwards an already-
// authenticated caller's identity downstream. A malformed or absent
// token is skipped silently, matching spec.md's "claim projection is
// best-effort" note.
type JWTClaimHeader struct {
	Claim, Header string
}

func (JWTClaimHeader) Name() string { return "jwt-claim-header" }

func (JWTClaimHeader) Configure(p Params) (BufferedTransform, error) {
	claim, err := p.require("jwt-claim-header", "claim")
	if err != nil {
		return nil, err
	}
	header, err := p.require("jwt-claim-header", "header")
	if err != nil {
		return nil, err
	}
	return JWTClaimHeader{Claim: claim, Header: header}, nil
}

func (JWTClaimHeader) ShouldApply(c messagecontext.Buffered) bool {
	return bearerToken(c) != ""
}

func (t JWTClaimHeader) Apply(c messagecontext.Buffered) error {
	token := bearerToken(c)
	if token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		// Malformed token: skip silently rather than fail the pipeline —
		// authentication enforcement happens upstream of this gateway.
		return nil
	}
	value, ok := claims[t.Claim]
	if !ok {
		return nil
	}
	if s, ok := value.(string); ok {
		c.SetHeader(t.Header, s)
	}
	return nil
}
