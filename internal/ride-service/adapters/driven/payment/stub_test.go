package payment

import (
	"context"
	"testing"

	"ridelink/internal/ride-service/core/myerrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStub_CreateAndConfirm(t *testing.T) {
	client := NewStub()

	ref, err := client.CreateIntent(context.Background(), 19.90)
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	require.NoError(t, client.Confirm(context.Background(), ref))
}

func TestStub_ConfirmTwice(t *testing.T) {
	client := NewStub()

	ref, err := client.CreateIntent(context.Background(), 8.50)
	require.NoError(t, err)

	require.NoError(t, client.Confirm(context.Background(), ref))
	err = client.Confirm(context.Background(), ref)
	assert.Equal(t, myerrors.KindConflict, myerrors.KindOf(err))
}

func TestStub_UnknownIntent(t *testing.T) {
	client := NewStub()

	err := client.Confirm(context.Background(), "pi_nope")
	assert.Equal(t, myerrors.KindUpstream, myerrors.KindOf(err))
}

func TestStub_NonPositiveAmount(t *testing.T) {
	client := NewStub()

	_, err := client.CreateIntent(context.Background(), 0)
	assert.Equal(t, myerrors.KindValidation, myerrors.KindOf(err))
}
