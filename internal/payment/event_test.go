package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent_Succeeded(t *testing.T) {
	raw := []byte(`{
		"id": "evt_123",
		"type": "payment.succeeded",
		"created": 1700000000,
		"data": {"session_id": "cs_42", "amount": 5100, "currency": "usd"}
	}`)

	ev, err := DecodeEvent(raw)

	require.NoError(t, err)
	assert.Equal(t, "evt_123", ev.ID)
	assert.Equal(t, "cs_42", ev.SessionID)
	assert.Equal(t, KindPaymentSucceeded, ev.Kind())
}

func TestDecodeEvent_Failed(t *testing.T) {
	raw := []byte(`{"id":"evt_9","type":"payment.failed","data":{"session_id":"cs_7"}}`)

	ev, err := DecodeEvent(raw)

	require.NoError(t, err)
	assert.Equal(t, KindPaymentFailed, ev.Kind())
}

func TestDecodeEvent_OtherKind(t *testing.T) {
	raw := []byte(`{"id":"evt_5","type":"customer.created","data":{"email":"a@b.c"}}`)

	ev, err := DecodeEvent(raw)

	require.NoError(t, err)
	assert.Equal(t, KindOther, ev.Kind())
	assert.Empty(t, ev.SessionID)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	for _, raw := range []string{
		``,
		`not json`,
		`[]`,
		`{"type":"payment.succeeded"}`, // missing id
		`{"id":"evt_1"}`,               // missing type
	} {
		_, err := DecodeEvent([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedEvent, "payload %q", raw)
	}
}
