package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("could not save receipt", cause)

	assert.Equal(t, "could not save receipt: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	var userErr *UserError
	assert.True(t, errors.As(err, &userErr))
	assert.Equal(t, "could not save receipt", userErr.UserMessage)
}

func TestUserErrorWithoutCause(t *testing.T) {
	err := NewUserError("nothing to commit", nil)
	assert.Equal(t, "nothing to commit", err.Error())
}

func TestCapacityErrorUnwrapsToSentinel(t *testing.T) {
	err := &CapacityError{Limit: 10, RejectedIDs: []string{"a", "b"}}

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Contains(t, err.Error(), "limit 10")
	assert.Contains(t, err.Error(), "a, b")
}

func TestPersistErrorKeepsCause(t *testing.T) {
	cause := errors.New("write timeout")
	err := &PersistError{ReceiptID: "r1", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "r1")
}
