package payment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodCard, m)

	m, err = ParseMethod("cash")
	require.NoError(t, err)
	assert.Equal(t, MethodCash, m)

	_, err = ParseMethod("barter")
	assert.Error(t, err)
}

func TestNewPaidPayment(t *testing.T) {
	gatewayID := uuid.New()
	p, err := NewPaidPayment(gatewayID, uuid.New(), decimal.NewFromInt(6500), "LKR", MethodCard, "ch_123")
	require.NoError(t, err)
	assert.Equal(t, gatewayID, p.ID())
	assert.True(t, p.IsPaid())
	assert.NotNil(t, p.PaidAt())

	p, err = NewPaidPayment(uuid.Nil, uuid.New(), decimal.NewFromInt(1), "LKR", MethodCash, "")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID())

	_, err = NewPaidPayment(uuid.Nil, uuid.Nil, decimal.NewFromInt(1), "LKR", MethodCash, "")
	assert.Error(t, err)
}
