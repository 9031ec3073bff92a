package nodes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"genai 429", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, http.StatusTooManyRequests, KindRateLimit, RateLimitMessage},
		{"wrapped genai exhausted", fmt.Errorf("generate: %w", genai.APIError{Code: 400, Status: "RESOURCE_EXHAUSTED"}), http.StatusTooManyRequests, KindRateLimit, RateLimitMessage},
		{"openai 429", &openai.APIError{HTTPStatusCode: 429, Message: "rate limit"}, http.StatusTooManyRequests, KindRateLimit, RateLimitMessage},
		{"text resource_exhausted", errors.New("rpc error: resource_exhausted"), http.StatusTooManyRequests, KindRateLimit, RateLimitMessage},
		{"deadline", fmt.Errorf("node ChatModel: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, KindTimeout, TimeoutMessage},
		{"text timeout", errors.New("Client.Timeout exceeded while awaiting headers"), http.StatusGatewayTimeout, KindTimeout, TimeoutMessage},
		{"empty", fmt.Errorf("commit: %w", ErrEmptyReply), http.StatusBadGateway, KindEmpty, EmptyReplyMessage},
		{"api error", genai.APIError{Code: 500, Message: "internal"}, http.StatusBadGateway, KindOther, "❌ Error inesperado: APIError"},
		{"request error", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("unavailable")}, http.StatusBadGateway, KindOther, "❌ Error inesperado: RequestError"},
		{"plain", errors.New("boom: password=hunter2"), http.StatusBadGateway, KindOther, "❌ Error inesperado: InternalError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, kind := ClassifyFailure(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.message, appErr.Message)
			assert.Equal(t, tt.err, appErr.Err)
		})
	}
}

func TestNotConfiguredMessageNamesProviderKey(t *testing.T) {
	assert.Contains(t, NotConfiguredMessage("gemini"), "GEMINI_API_KEY")
	assert.Contains(t, NotConfiguredMessage(""), "GEMINI_API_KEY")
	assert.Contains(t, NotConfiguredMessage("OpenAI"), "OPENAI_API_KEY")
}
