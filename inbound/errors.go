package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/conduit-ucpi/walletauth/core"
)

func inboundError(
	message string,
	category goerrors.Category,
	code int,
	metadata map[string]any,
) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCodeFor(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func inboundWrapError(
	source error,
	category goerrors.Category,
	message string,
	code int,
	metadata map[string]any,
) error {
	if source == nil {
		return inboundError(message, category, code, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(code).
		WithTextCode(textCodeFor(category))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func inboundBadInput(message string, metadata map[string]any) error {
	return inboundError(message, goerrors.CategoryBadInput, http.StatusBadRequest, metadata)
}

func inboundAuth(message string, metadata map[string]any) error {
	return inboundError(message, goerrors.CategoryAuth, http.StatusUnauthorized, metadata)
}

func inboundInternal(message string, metadata map[string]any) error {
	return inboundError(message, goerrors.CategoryInternal, http.StatusInternalServerError, metadata)
}

func textCodeFor(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation, goerrors.CategoryNotFound:
		return core.AuthErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return core.AuthErrorBackendRejected
	case goerrors.CategoryOperation, goerrors.CategoryExternal:
		return core.AuthErrorNetwork
	default:
		return core.AuthErrorInternal
	}
}
