package providers

import (
	"github.com/samber/do/v2"

	"github.com/locallibrary/locallibrary-server/internal/auth"
	"github.com/locallibrary/locallibrary-server/internal/config"
	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/ratelimit"
)

// AuthKey wraps the session signing key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the session signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	cfg.Auth.SessionKey = key

	log.Info("Session key loaded", "session_duration", cfg.Auth.SessionDuration)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service that signs session cookies.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(key), cfg.Auth.SessionDuration)
}

// ProvideLoginLimiter provides the per-client login throttle.
func ProvideLoginLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.Auth.LoginRate, cfg.Auth.LoginBurst), nil
}
