package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billgate/billgate/internal/gate"
)

func TestCompilePattern_Valid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"exact", "/v1/accounts"},
		{"param", "/v1/accounts/{accountId}"},
		{"wildcard", "/v1/accounts/*"},
		{"mixed", "/v1/accounts/{accountId}/transactions/*"},
		{"root wildcard", "/*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := gate.CompilePattern(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, p.String())
		})
	}
}

func TestCompilePattern_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"slash only", "/"},
		{"wildcard not terminal", "/v1/*/accounts"},
		{"empty param name", "/v1/{}"},
		{"malformed brace", "/v1/{accountId"},
		{"embedded wildcard", "/v1/acc*unts"},
		{"empty segment", "/v1//accounts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.CompilePattern(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestPattern_Match_Exact(t *testing.T) {
	p, err := gate.CompilePattern("/v1/accounts")
	require.NoError(t, err)

	_, ok := p.Match("/v1/accounts")
	assert.True(t, ok)

	_, ok = p.Match("/v1/accounts/acc_1")
	assert.False(t, ok)

	_, ok = p.Match("/v1/bills")
	assert.False(t, ok)
}

func TestPattern_Match_ParamBinding(t *testing.T) {
	p, err := gate.CompilePattern("/v1/accounts/{accountId}")
	require.NoError(t, err)

	params, ok := p.Match("/v1/accounts/acc_42")
	require.True(t, ok)
	assert.Equal(t, "acc_42", params["accountId"])

	_, ok = p.Match("/v1/accounts")
	assert.False(t, ok)

	_, ok = p.Match("/v1/accounts/acc_42/extra")
	assert.False(t, ok)
}

func TestPattern_Match_WildcardConsumesRemainder(t *testing.T) {
	p, err := gate.CompilePattern("/v1/accounts/*")
	require.NoError(t, err)

	// Zero remaining segments still match.
	_, ok := p.Match("/v1/accounts")
	assert.True(t, ok)

	_, ok = p.Match("/v1/accounts/acc_1")
	assert.True(t, ok)

	_, ok = p.Match("/v1/accounts/acc_1/transactions/tx_9")
	assert.True(t, ok)

	_, ok = p.Match("/v1/bills")
	assert.False(t, ok)
}

func TestPattern_Match_TrailingSlashInsensitive(t *testing.T) {
	p, err := gate.CompilePattern("/v1/accounts")
	require.NoError(t, err)

	_, ok := p.Match("/v1/accounts/")
	assert.True(t, ok)
}
