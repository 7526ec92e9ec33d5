// Package errors defines the shared error-kind taxonomy used across the
// authorization proxy and key-assembly components. Every domain error
// collapses to one of these kinds so callers can switch on behavior
// (retry vs. terminal) without inspecting message strings.
package errors

import "fmt"

// Kind enumerates the domain error codes from the system's error design.
type Kind int

const (
	KindUnspecified Kind = iota
	KindBadRequest
	KindInvalidConfig
	KindRemoteUnavailable
	KindAuthRequestInProgress
	KindEntryBeingDeleted
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindPreconditionFailed
	KindTooManyRequests
	KindTimeout
	KindServerError
	KindNotImplemented
	KindServiceUnavailable
	KindBadGateway
	KindBadHeader
	KindOtherHTTPError
	KindBadRegexParsing
	KindInvalidJSON
	KindInvalidEncryptionKeyType
	KindInvalidKeyDataCount
	KindInvalidKeyResourceName
	KindKeyDataNotFound
	KindKeyMaterialNotFound
	KindSecretPieceSizeUnmatched
	KindMissingTimestamp
	KindCannotCreateJSONKeyset
	KindCannotReadEncryptedKeyset
	KindInvalidVendingEndpointCount
	KindKMSDecryptFailed
)

var kindNames = map[Kind]string{
	KindUnspecified:                 "UNSPECIFIED",
	KindBadRequest:                  "BAD_REQUEST",
	KindInvalidConfig:               "INVALID_CONFIG",
	KindRemoteUnavailable:           "REMOTE_UNAVAILABLE",
	KindAuthRequestInProgress:       "AUTH_REQUEST_INPROGRESS",
	KindEntryBeingDeleted:           "ENTRY_BEING_DELETED",
	KindUnauthorized:                "UNAUTHORIZED",
	KindForbidden:                   "FORBIDDEN",
	KindNotFound:                    "NOT_FOUND",
	KindConflict:                    "CONFLICT",
	KindPreconditionFailed:          "PRECONDITION_FAILED",
	KindTooManyRequests:             "TOO_MANY_REQUESTS",
	KindTimeout:                     "TIMEOUT",
	KindServerError:                 "SERVER_ERROR",
	KindNotImplemented:              "NOT_IMPLEMENTED",
	KindServiceUnavailable:          "SERVICE_UNAVAILABLE",
	KindBadGateway:                  "BAD_GATEWAY",
	KindBadHeader:                   "BAD_HEADER",
	KindOtherHTTPError:              "OTHER_HTTP_ERROR",
	KindBadRegexParsing:             "BAD_REGEX_PARSING",
	KindInvalidJSON:                 "INVALID_JSON",
	KindInvalidEncryptionKeyType:    "INVALID_ENCRYPTION_KEY_TYPE",
	KindInvalidKeyDataCount:         "INVALID_KEY_DATA_COUNT",
	KindInvalidKeyResourceName:      "INVALID_KEY_RESOURCE_NAME",
	KindKeyDataNotFound:             "KEY_DATA_NOT_FOUND",
	KindKeyMaterialNotFound:         "KEY_MATERIAL_NOT_FOUND",
	KindSecretPieceSizeUnmatched:    "SECRET_PIECE_SIZE_UNMATCHED",
	KindMissingTimestamp:            "MISSING_TIMESTAMP",
	KindCannotCreateJSONKeyset:      "CANNOT_CREATE_JSON_KEYSET",
	KindCannotReadEncryptedKeyset:   "CANNOT_READ_ENCRYPTED_KEYSET",
	KindInvalidVendingEndpointCount: "INVALID_VENDING_ENDPOINT_COUNT",
	KindKMSDecryptFailed:            "KMS_DECRYPT_FAILED",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// retryableKinds lists the kinds the system classifies as "try again
// later" per spec.md section 7 / the HTTP status table in section 4.2.
var retryableKinds = map[Kind]bool{
	KindRemoteUnavailable:     true,
	KindAuthRequestInProgress: true,
	KindEntryBeingDeleted:     true,
	KindServerError:           true,
	KindNotImplemented:        true,
	KindServiceUnavailable:    true,
	KindOtherHTTPError:        true,
	KindBadRegexParsing:       true,
	KindKMSDecryptFailed:      true,
}

// Retryable reports whether a caller should back off and retry, versus
// treat the error as terminal.
func (k Kind) Retryable() bool {
	return retryableKinds[k]
}
