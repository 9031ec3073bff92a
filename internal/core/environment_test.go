package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"production":  Production,
		" PROD ":      Production,
		"staging":     Staging,
		"test":        Testing,
		"":            Development,
		"who-knows":   Development,
		"development": Development,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseEnvironment(in), "input %q", in)
	}
}

func TestEnvironmentDecode(t *testing.T) {
	var e Environment
	assert.NoError(t, e.Decode("Production"))
	assert.True(t, e.IsProduction())
}
