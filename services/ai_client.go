package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// OutcomeKind enumerates what a single AI call produced.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeQuotaExceeded
	OutcomeOtherFailure
	OutcomeNotConfigured
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeQuotaExceeded:
		return "quota_exceeded"
	case OutcomeOtherFailure:
		return "other_failure"
	case OutcomeNotConfigured:
		return "not_configured"
	default:
		return "unknown"
	}
}

// Classification is the adapter's verdict on one call. Text is set only for
// OutcomeSuccess, Message only for failures.
type Classification struct {
	Kind    OutcomeKind
	Text    string
	Message string
}

func Success(text string) Classification {
	return Classification{Kind: OutcomeSuccess, Text: text}
}

func QuotaExceeded(message string) Classification {
	return Classification{Kind: OutcomeQuotaExceeded, Message: message}
}

func OtherFailure(message string) Classification {
	return Classification{Kind: OutcomeOtherFailure, Message: message}
}

func NotConfigured() Classification {
	return Classification{Kind: OutcomeNotConfigured, Message: ErrNotConfigured.Error()}
}

// AIClient wraps a single text generation call against an external provider.
// Implementations perform at most one outbound request per Generate and never
// retry.
type AIClient interface {
	Generate(ctx context.Context, prompt string) Classification
	Name() string
	Configured() bool
}

// quotaMarkers are matched case-insensitively against error text when the
// error carries no structured status.
var quotaMarkers = []string{
	"quota",
	"exceeded",
	"rate limit",
	"resource_exhausted",
	"too many requests",
	"429",
}

type statusCoder interface {
	StatusCode() int
}

// ClassifyResult turns the raw (text, err) pair of a provider call into a
// Classification.
func ClassifyResult(text string, err error) Classification {
	if err != nil {
		return ClassifyError(err)
	}
	if strings.TrimSpace(text) == "" {
		return OtherFailure("empty response")
	}
	return Success(text)
}

// ClassifyError applies the rules below in order, first match wins:
//
//  1. ErrNotConfigured                                   -> NotConfigured
//  2. structured HTTP 429 / RESOURCE_EXHAUSTED status    -> QuotaExceeded
//  3. deadline exceeded or network timeout               -> OtherFailure("timeout")
//  4. context canceled                                   -> OtherFailure("canceled")
//  5. quota marker substring in the error text           -> QuotaExceeded
//  6. anything else                                      -> OtherFailure(err.Error())
//
// Timeouts are checked before substrings because "context deadline exceeded"
// would otherwise match the "exceeded" marker.
func ClassifyError(err error) Classification {
	if err == nil {
		return OtherFailure("no error")
	}

	if errors.Is(err, ErrNotConfigured) {
		return NotConfigured()
	}

	if status, ok := structuredStatus(err); ok && status == http.StatusTooManyRequests {
		return QuotaExceeded(err.Error())
	}
	var gerr genai.APIError
	if errors.As(err, &gerr) && strings.EqualFold(gerr.Status, "RESOURCE_EXHAUSTED") {
		return QuotaExceeded(err.Error())
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return OtherFailure("timeout")
	}
	if errors.Is(err, context.Canceled) {
		return OtherFailure("canceled")
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return QuotaExceeded(err.Error())
		}
	}

	return OtherFailure(err.Error())
}

// structuredStatus extracts an HTTP status code from the provider error types
// we know about.
func structuredStatus(err error) (int, bool) {
	var gerr genai.APIError
	if errors.As(err, &gerr) {
		return gerr.Code, true
	}
	var gerrPtr *genai.APIError
	if errors.As(err, &gerrPtr) && gerrPtr != nil {
		return gerrPtr.Code, true
	}
	var oaErr *openai.APIError
	if errors.As(err, &oaErr) {
		return oaErr.HTTPStatusCode, true
	}
	var oaReqErr *openai.RequestError
	if errors.As(err, &oaReqErr) {
		return oaReqErr.HTTPStatusCode, true
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode(), true
	}
	return 0, false
}
