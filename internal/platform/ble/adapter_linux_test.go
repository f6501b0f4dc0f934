//go:build linux

package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAdapter_EnabledHasNoSideEffect 测试查询状态不会打开适配器
func TestAdapter_EnabledHasNoSideEffect(t *testing.T) {
	// adapter 为空，若 Enabled 调用 Enable 会直接 panic
	a := &Adapter{}
	assert.False(t, a.Enabled())

	a.enabled = true
	assert.True(t, a.Enabled())
}
