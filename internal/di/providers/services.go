package providers

import (
	"github.com/samber/do/v2"

	"github.com/locallibrary/locallibrary-server/internal/logger"
	"github.com/locallibrary/locallibrary-server/internal/ratelimit"
	"github.com/locallibrary/locallibrary-server/internal/service"
	"github.com/locallibrary/locallibrary-server/internal/session"
	"github.com/locallibrary/locallibrary-server/internal/store/sqlstore"
	"github.com/locallibrary/locallibrary-server/internal/validation"
)

// ProvideValidator provides the form validator shared by all services.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideCatalogService provides the read-only catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	st := do.MustInvoke[*sqlstore.Store](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(st, log.Logger), nil
}

// ProvideLoanService provides the loan and renewal service.
func ProvideLoanService(i do.Injector) (*service.LoanService, error) {
	st := do.MustInvoke[*sqlstore.Store](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLoanService(st, v, log.Logger), nil
}

// ProvideAuthorService provides author create, update and delete.
func ProvideAuthorService(i do.Injector) (*service.AuthorService, error) {
	st := do.MustInvoke[*sqlstore.Store](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthorService(st, v, log.Logger), nil
}

// ProvideBookService provides book create, update and delete.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	st := do.MustInvoke[*sqlstore.Store](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(st, v, log.Logger), nil
}

// ProvideAuthService provides the login service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	st := do.MustInvoke[*sqlstore.Store](i)
	sessions := do.MustInvoke[*session.Manager](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(st, sessions, limiter, v, log.Logger), nil
}
