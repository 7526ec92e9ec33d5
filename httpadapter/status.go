package httpadapter

import (
	"fmt"

	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// StatusToError maps an HTTP status code to the taxonomy in section 4.2.
// It returns nil for any status below 400 (success).
func StatusToError(statusCode int) error {
	switch {
	case statusCode < 400:
		return nil
	case statusCode == 400:
		return scperrors.New(scperrors.KindBadRequest, "bad request")
	case statusCode == 401:
		return scperrors.New(scperrors.KindUnauthorized, "unauthorized")
	case statusCode == 403:
		return scperrors.New(scperrors.KindForbidden, "forbidden")
	case statusCode == 404:
		return scperrors.New(scperrors.KindNotFound, "not found")
	case statusCode == 408:
		return scperrors.New(scperrors.KindTimeout, "request timeout")
	case statusCode == 409:
		return scperrors.New(scperrors.KindConflict, "conflict")
	case statusCode == 412:
		return scperrors.New(scperrors.KindPreconditionFailed, "precondition failed")
	case statusCode == 429:
		return scperrors.New(scperrors.KindTooManyRequests, "too many requests")
	case statusCode == 500:
		return scperrors.New(scperrors.KindServerError, "server error")
	case statusCode == 501:
		return scperrors.New(scperrors.KindNotImplemented, "not implemented")
	case statusCode == 502:
		return scperrors.New(scperrors.KindBadGateway, "bad gateway")
	case statusCode == 503:
		return scperrors.New(scperrors.KindServiceUnavailable, "service unavailable")
	case statusCode >= 400:
		return scperrors.New(scperrors.KindOtherHTTPError, fmt.Sprintf("unexpected status %d", statusCode))
	default:
		return nil
	}
}
