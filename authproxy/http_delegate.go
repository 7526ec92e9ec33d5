package authproxy

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/asynccontext"
	"github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/httpadapter"
	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// HeaderBuilder prepares the wire request's headers from the caller's
// credential. A failure here is a BadRequest per section 4.4.
type HeaderBuilder func(AuthorizationMetadata) (map[string]string, error)

// DefaultHeaderBuilder carries the bearer token and claimed identity the
// way a typical authorization POST would; callers with a different wire
// contract can supply their own HeaderBuilder to HTTPDelegate.
func DefaultHeaderBuilder(meta AuthorizationMetadata) (map[string]string, error) {
	if !meta.Valid() {
		return nil, scperrors.New(scperrors.KindBadRequest, "invalid authorization metadata")
	}
	return map[string]string{
		"Authorization":      "Bearer " + meta.AuthorizationToken,
		"X-Claimed-Identity": meta.ClaimedIdentity,
		"Content-Type":       "application/json",
	}, nil
}

// ResponseParser turns a successful response body into AuthorizedMetadata.
type ResponseParser func(body []byte) (AuthorizedMetadata, error)

// DefaultResponseParser decodes the body as JSON into AuthorizedMetadata.
func DefaultResponseParser(body []byte) (AuthorizedMetadata, error) {
	var meta AuthorizedMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return AuthorizedMetadata{}, scperrors.Wrap(scperrors.KindInvalidJSON, "failed to parse authorization response", err)
	}
	return meta, nil
}

// HTTPDelegate is the concrete wire-format variant of the proxy (C4): it
// builds one POST to the configured endpoint and parses the response.
type HTTPDelegate struct {
	endpoint      *url.URL
	client        *httpadapter.Client
	buildHeaders  HeaderBuilder
	parseResponse ResponseParser
}

var _ Delegate = (*HTTPDelegate)(nil)

// NewHTTPDelegate parses endpointURI once; a parse failure is
// InvalidConfig, matching section 4.4's Init contract.
func NewHTTPDelegate(endpointURI string, client *httpadapter.Client, headers HeaderBuilder, parser ResponseParser) (*HTTPDelegate, error) {
	u, err := url.Parse(endpointURI)
	if err != nil || !u.IsAbs() {
		return nil, scperrors.Wrap(scperrors.KindInvalidConfig, "invalid auth endpoint uri", err)
	}
	if headers == nil {
		headers = DefaultHeaderBuilder
	}
	if parser == nil {
		parser = DefaultResponseParser
	}
	return &HTTPDelegate{endpoint: u, client: client, buildHeaders: headers, parseResponse: parser}, nil
}

// AuthorizeInternal implements Delegate.
func (d *HTTPDelegate) AuthorizeInternal(ctx *Ctx) error {
	if ctx.Request == nil {
		err := scperrors.New(scperrors.KindBadRequest, "missing request")
		ctx.Finish(asynccontext.Result{Status: asynccontext.StatusFailure, Err: err})
		return err
	}

	headers, err := d.buildHeaders(ctx.Request.AuthorizationMetadata)
	if err != nil {
		domainErr := scperrors.Wrap(scperrors.KindBadRequest, "header preparation failed", err)
		ctx.Finish(asynccontext.Result{Status: asynccontext.StatusFailure, Err: domainErr})
		return nil
	}

	resp, err := d.client.Do(context.Background(), httpadapter.Request{
		Method:  httpadapter.MethodPOST,
		URL:     d.endpoint.String(),
		Headers: headers,
	})
	if err != nil {
		kind := scperrors.KindOf(err)
		if kind == scperrors.KindBadRegexParsing {
			remoteErr := scperrors.Wrap(scperrors.KindRemoteUnavailable, "remote authorization endpoint unavailable", err)
			status := asynccontext.StatusRetry
			ctx.Finish(asynccontext.Result{Status: status, Err: remoteErr})
			return nil
		}
		status := asynccontext.StatusFailure
		if kind.Retryable() {
			status = asynccontext.StatusRetry
		}
		ctx.Finish(asynccontext.Result{Status: status, Err: err})
		return nil
	}

	meta, parseErr := d.parseResponse(resp.Body)
	if parseErr != nil {
		ctx.Finish(asynccontext.Result{Status: asynccontext.StatusFailure, Err: parseErr})
		return nil
	}

	ctx.Response = &Response{AuthorizedMetadata: meta}
	ctx.Finish(asynccontext.Result{Status: asynccontext.StatusSuccess})
	return nil
}
