package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/vango-dev/vango-admin/pkg/apiclient"
	"github.com/vango-dev/vango-admin/pkg/router"
	"github.com/vango-dev/vango-admin/pkg/upload"
)

// Classify maps any error raised inside the console to a Category. The
// category drives toast wording and metric labels.
func Classify(err error) Category {
	if err == nil {
		return ""
	}

	var e *Error
	if stderrors.As(err, &e) && e.Category != "" {
		return e.Category
	}

	var apiErr *apiclient.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Kind() {
		case apiclient.KindNetwork:
			return CategoryNetwork
		case apiclient.KindTimeout:
			return CategoryTimeout
		case apiclient.KindUnauthorized:
			return CategoryAuth
		case apiclient.KindClient:
			switch apiErr.Status {
			case http.StatusForbidden:
				return CategoryPermission
			case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
				return CategoryValidation
			}
			return CategoryBackend
		default:
			return CategoryBackend
		}
	}

	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, router.ErrSuperseded):
		return CategoryCanceled
	case stderrors.Is(err, context.DeadlineExceeded):
		return CategoryTimeout
	case stderrors.Is(err, router.ErrTooManyRedirects), stderrors.Is(err, router.ErrInvalidTarget):
		return CategoryNavigation
	case stderrors.Is(err, upload.ErrTooLarge), stderrors.Is(err, upload.ErrBadType),
		stderrors.Is(err, upload.ErrNotFound), stderrors.Is(err, upload.ErrBadTempID):
		return CategoryUpload
	}
	return CategoryInternal
}

// Describe turns err into a registered Error, keeping err as the cause.
// Backend messages are kept as the detail, since they are usually written
// for the end user.
func Describe(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	code := ""
	switch {
	case stderrors.Is(err, router.ErrTooManyRedirects):
		code = "E300"
	case stderrors.Is(err, router.ErrInvalidTarget):
		code = "E301"
	case stderrors.Is(err, upload.ErrTooLarge):
		code = "E400"
	case stderrors.Is(err, upload.ErrBadType):
		code = "E401"
	case stderrors.Is(err, upload.ErrNotFound), stderrors.Is(err, upload.ErrBadTempID):
		code = "E402"
	default:
		switch Classify(err) {
		case CategoryNetwork:
			code = "E200"
		case CategoryTimeout:
			code = "E201"
		case CategoryAuth:
			code = "E202"
		case CategoryPermission:
			code = "E203"
		case CategoryValidation, CategoryBackend:
			code = "E204"
			var apiErr *apiclient.Error
			if stderrors.As(err, &apiErr) && apiErr.Kind() == apiclient.KindDecode {
				code = "E205"
			}
		}
	}

	if code == "" {
		return Newf(Classify(err), "%s", err.Error()).Wrap(err)
	}
	out := New(code).Wrap(err)
	var apiErr *apiclient.Error
	if stderrors.As(err, &apiErr) && apiErr.Message != "" {
		out.Detail = apiErr.Message
	}
	return out
}
