package llm

import (
	"quizbench/internal/domain"
)

// classifyStatus maps an HTTP status to the domain's provider error
// taxonomy.
func classifyStatus(status int) domain.ErrorCode {
	switch status {
	case 400:
		return domain.ErrProviderBadRequest
	case 401:
		return domain.ErrProviderAuth
	case 403:
		return domain.ErrProviderForbidden
	case 404:
		return domain.ErrProviderNotFound
	case 429:
		return domain.ErrProviderRateLimited
	default:
		return domain.ErrProviderHTTP
	}
}

// hintFor returns operator guidance for the failure classes that are
// almost always misconfiguration: wrong API key or a stale model name.
func hintFor(code domain.ErrorCode, keyEnv string) string {
	switch code {
	case domain.ErrProviderAuth:
		return "check " + keyEnv
	case domain.ErrProviderForbidden:
		return "verify that " + keyEnv + " grants access to this model"
	case domain.ErrProviderNotFound:
		return "check the model name in models.yaml"
	default:
		return ""
	}
}

func newHTTPError(provider, model, keyEnv string, status int, message string, err error) *domain.ProviderError {
	code := classifyStatus(status)
	return &domain.ProviderError{
		Code:     code,
		Provider: provider,
		Model:    model,
		Status:   status,
		Message:  message,
		Hint:     hintFor(code, keyEnv),
		Err:      err,
	}
}

func newTransportError(provider, model string, err error) *domain.ProviderError {
	return &domain.ProviderError{
		Code:     domain.ErrProviderTransport,
		Provider: provider,
		Model:    model,
		Err:      err,
	}
}
