package ble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloserFunc(t *testing.T) {
	called := 0
	var c closerFunc = func() error {
		called++
		return errors.New("gone")
	}
	assert.EqualError(t, c.Close(), "gone")
	assert.Equal(t, 1, called)
}
