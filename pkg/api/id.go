package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	requestIDPrefix    = "req_"
	completionIDPrefix = "chatcmpl-"
	toolCallIDPrefix   = "call_"
	usageIDPrefix      = "usage_"
)

var requestIDPattern = regexp.MustCompile(`^req_[a-zA-Z0-9]{24}$`)

// NewRequestID generates a client request ID with the "req_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewRequestID() string {
	return requestIDPrefix + randomAlphanumeric(idLength)
}

// NewCompletionID generates an ID in the "chatcmpl-" format used by
// chat completion services.
func NewCompletionID() string {
	return completionIDPrefix + randomAlphanumeric(idLength)
}

// NewToolCallID generates a tool call ID with the "call_" prefix.
func NewToolCallID() string {
	return toolCallIDPrefix + randomAlphanumeric(idLength)
}

// NewUsageID generates a usage ledger record ID with the "usage_" prefix.
func NewUsageID() string {
	return usageIDPrefix + randomAlphanumeric(idLength)
}

// ValidateRequestID checks whether the given string was produced by
// NewRequestID.
func ValidateRequestID(id string) bool {
	return requestIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
