package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AuthErrorBadInput           = "WALLETAUTH_BAD_INPUT"
	AuthErrorProviderNotFound   = "WALLETAUTH_PROVIDER_NOT_FOUND"
	AuthErrorProviderInit       = "WALLETAUTH_PROVIDER_INIT"
	AuthErrorConnectionDeclined = "WALLETAUTH_CONNECTION_DECLINED"
	AuthErrorSigningRefused     = "WALLETAUTH_SIGNING_REFUSED"
	AuthErrorBackendRejected    = "WALLETAUTH_BACKEND_REJECTED"
	AuthErrorNetwork            = "WALLETAUTH_NETWORK"
	AuthErrorRateLimited        = "WALLETAUTH_RATE_LIMITED"
	AuthErrorRedirectIncomplete = "WALLETAUTH_REDIRECT_INCOMPLETE"
	AuthErrorInternal           = "WALLETAUTH_INTERNAL"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAuthErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "provider") && strings.Contains(msg, "not registered"):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorProviderNotFound)
	case strings.Contains(msg, "initialize") || strings.Contains(msg, "configuration"):
		return newAuthError(err.Error(), goerrors.CategoryOperation, AuthErrorProviderInit)
	case strings.Contains(msg, "declined"), strings.Contains(msg, "cancelled"):
		return newAuthError(err.Error(), goerrors.CategoryOperation, AuthErrorConnectionDeclined)
	case strings.Contains(msg, "signature") || strings.Contains(msg, "signing"):
		return newAuthError(err.Error(), goerrors.CategoryOperation, AuthErrorSigningRefused)
	case strings.Contains(msg, "credential rejected"), strings.Contains(msg, "unauthorized"):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorBackendRejected)
	case strings.Contains(msg, "redirect"):
		return newAuthError(err.Error(), goerrors.CategoryOperation, AuthErrorRedirectIncomplete)
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "unreachable"):
		return newAuthError(err.Error(), goerrors.CategoryExternal, AuthErrorNetwork)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newAuthError(err.Error(), goerrors.CategoryBadInput, AuthErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAuthErrorEnvelope(mapped)
}

func newAuthError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureAuthErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = authHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAuthTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAuthTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AuthErrorBadInput
	case goerrors.CategoryNotFound:
		return AuthErrorProviderNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AuthErrorBackendRejected
	case goerrors.CategoryExternal:
		return AuthErrorNetwork
	case goerrors.CategoryOperation:
		return AuthErrorConnectionDeclined
	default:
		return AuthErrorInternal
	}
}

func authHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorTextCode extracts the walletauth text code from any error, or ""
// when the error carries none. UI layers branch on this, not on messages.
func ErrorTextCode(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}
