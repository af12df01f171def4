package query

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/conduit-ucpi/walletauth/core"
)

func TestListAuthActivityMessage_ValidateReturnsRichError(t *testing.T) {
	err := (ListAuthActivityMessage{Filter: core.AuthActivityFilter{Page: -1}}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.AuthErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.AuthErrorBadInput, rich.TextCode)
	}
}

func TestGetSessionQuery_NilReaderReturnsRichError(t *testing.T) {
	var q *GetSessionQuery
	_, err := q.Query(context.Background(), GetSessionMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
