package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"dineease/shared/failure"

	"github.com/pkg/errors"
)

// Verifier checks that a payment callback signature was produced by the
// gateway using the shared key secret.
type Verifier interface {
	Verify(orderID, paymentID, signature string) error
}

type verifierImpl struct {
	secret []byte
}

// New returns a Verifier bound to the gateway key secret. An empty secret
// would make every signature check fail open or closed in surprising ways,
// so it is rejected up front.
func New(secret string) (Verifier, error) {
	if secret == "" {
		return nil, errors.New("payment key secret is not configured")
	}

	return &verifierImpl{secret: []byte(secret)}, nil
}

// Verify recomputes the HMAC-SHA256 digest of "<orderID>|<paymentID>" and
// compares it against the supplied hex signature in constant time.
func (v *verifierImpl) Verify(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(orderID + "|" + paymentID))

	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return failure.SignatureInvalidError
	}

	return nil
}
