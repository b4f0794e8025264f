package di

import (
	"dineease/config"
	"dineease/internal/domains/payment/signature"

	"github.com/rs/zerolog/log"
)

// provideVerifier builds the payment signature verifier. A missing webhook
// secret makes every confirmation unverifiable, so it aborts startup instead
// of letting the server run in a broken state.
func provideVerifier(cfg *config.Config) signature.Verifier {
	verifier, err := signature.New(cfg.Payment.KeySecret)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize payment signature verifier")
	}

	return verifier
}
