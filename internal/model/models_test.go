package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderState(t *testing.T) {
	assert.True(t, StatePendingPayment.Valid())
	assert.False(t, OrderState("enviada").Valid())

	assert.True(t, StateCompleted.Final())
	assert.True(t, StateCancelled.Final())
	assert.False(t, StatePaymentApproved.Final())

	assert.True(t, StatePendingPayment.Cancellable())
	assert.True(t, StateProofUploaded.Cancellable())
	assert.False(t, StatePaymentApproved.Cancellable())
	assert.False(t, StateCompleted.Cancellable())
}

func TestPaymentType(t *testing.T) {
	assert.True(t, PaymentCard.Valid())
	assert.False(t, PaymentType("efectivo").Valid())

	assert.True(t, PaymentTransfer.NeedsProof())
	assert.True(t, PaymentQR.NeedsProof())
	assert.False(t, PaymentPickup.NeedsProof())
	assert.False(t, PaymentCard.NeedsProof())
}

func TestCurrentRecord(t *testing.T) {
	o := &Order{}
	assert.Nil(t, o.CurrentRecord())

	o.History = []StatusRecord{
		{State: StatePendingPayment},
		{State: StateProofUploaded, Current: true},
	}
	assert.Equal(t, StateProofUploaded, o.CurrentRecord().State)
}
