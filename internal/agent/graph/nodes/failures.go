package nodes

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	errx "github.com/beexo-community/beexy/internal/core/error"
)

// User-facing replies for a cycle that produced no answer.
const (
	RateLimitMessage    = "⏳ Demasiadas consultas. Esperá unos segundos y volvé a preguntar."
	TimeoutMessage      = "⏳ La IA tardó demasiado en responder. Intentá de nuevo."
	EmptyReplyMessage   = "❌ La IA devolvió una respuesta vacía. Intentá de nuevo."
	unexpectedFormat    = "❌ Error inesperado: %s"
	notConfiguredFormat = "⚠️ La función de IA no está configurada todavía.\nUn administrador debe agregar la %s."
)

// NotConfiguredMessage is the reply when the provider's API key is missing.
// It names the key the provider reads.
func NotConfiguredMessage(provider string) string {
	key := "GEMINI_API_KEY"
	if strings.EqualFold(provider, ProviderOpenAI) {
		key = "OPENAI_API_KEY"
	}
	return fmt.Sprintf(notConfiguredFormat, key)
}

// ErrEmptyReply is returned when the model answers with nothing but whitespace.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Failure kinds, used as the metrics label.
const (
	KindRateLimit = "rate_limit"
	KindTimeout   = "timeout"
	KindEmpty     = "empty_reply"
	KindOther     = "other"
)

var modelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "beexy",
	Subsystem: "model",
	Name:      "failures_total",
	Help:      "Total failed model invocations by kind",
}, []string{"kind"})

// ClassifyFailure maps a failed cycle to an AppError whose Message is the
// reply shown to the user. Provider errors are not uniformly typed, so typed
// checks are backed by inspecting the error text.
func ClassifyFailure(err error) (*errx.AppError, string) {
	var (
		kind   string
		appErr *errx.AppError
	)
	switch {
	case errors.Is(err, ErrEmptyReply) || strings.Contains(err.Error(), ErrEmptyReply.Error()):
		kind = KindEmpty
		appErr = errx.New(err, http.StatusBadGateway, EmptyReplyMessage)
	case isRateLimited(err):
		kind = KindRateLimit
		appErr = errx.New(err, http.StatusTooManyRequests, RateLimitMessage)
	case isTimeout(err):
		kind = KindTimeout
		appErr = errx.New(err, http.StatusGatewayTimeout, TimeoutMessage)
	default:
		kind = KindOther
		appErr = errx.New(err, http.StatusBadGateway, fmt.Sprintf(unexpectedFormat, category(err)))
	}
	modelFailures.WithLabelValues(kind).Inc()
	return appErr, kind
}

func isRateLimited(err error) bool {
	if status, ok := providerStatus(err); ok && status == http.StatusTooManyRequests {
		return true
	}
	var gv genai.APIError
	if errors.As(err, &gv) && strings.EqualFold(gv.Status, "RESOURCE_EXHAUSTED") {
		return true
	}
	var gp *genai.APIError
	if errors.As(err, &gp) && strings.EqualFold(gp.Status, "RESOURCE_EXHAUSTED") {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") || strings.Contains(s, "resource_exhausted")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if status, ok := providerStatus(err); ok && status == http.StatusGatewayTimeout {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded")
}

// providerStatus extracts the HTTP status from a typed provider error.
func providerStatus(err error) (int, bool) {
	var gv genai.APIError
	if errors.As(err, &gv) {
		return gv.Code, true
	}
	var gp *genai.APIError
	if errors.As(err, &gp) {
		return gp.Code, true
	}
	var oa *openai.APIError
	if errors.As(err, &oa) {
		return oa.HTTPStatusCode, true
	}
	var or *openai.RequestError
	if errors.As(err, &or) {
		return or.HTTPStatusCode, true
	}
	return 0, false
}

// category names the kind of failure without exposing its details.
func category(err error) string {
	var (
		gv genai.APIError
		gp *genai.APIError
		oa *openai.APIError
		or *openai.RequestError
	)
	switch {
	case errors.As(err, &gv), errors.As(err, &gp), errors.As(err, &oa):
		return "APIError"
	case errors.As(err, &or):
		return "RequestError"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "NetworkError"
	}
	return "InternalError"
}
