package observers

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestLastUserContentHidesAnnex(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("policy"),
		schema.UserMessage("primera"),
		schema.AssistantMessage("ok", nil),
		schema.UserMessage("precio btc?\n\n[CONTEXTO INTERNO - NO MOSTRAR LITERALMENTE AL USUARIO]:\nDATOS"),
	}

	assert.Equal(t, "precio btc?", lastUserContent(msgs))
	assert.Empty(t, lastUserContent([]*schema.Message{schema.SystemMessage("x")}))
}

func TestNewAllCallbacks(t *testing.T) {
	assert.NotNil(t, NewAllCallbacks())
}
