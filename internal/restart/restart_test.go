package restart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorRange(t *testing.T) {
	tests := []struct {
		limit  uint64
		lo, hi int
	}{
		{1024, 3, 1024},
		{2, 3, 3},
		{0, 3, 3},
		{1 << 20, 3, maxDescriptors},
		{^uint64(0), 3, maxDescriptors},
	}
	for _, tt := range tests {
		lo, hi := descriptorRange(tt.limit)
		assert.Equal(t, tt.lo, lo, "limit %d", tt.limit)
		assert.Equal(t, tt.hi, hi, "limit %d", tt.limit)
	}
}

func TestNewExec_Defaults(t *testing.T) {
	e := NewExec("")
	assert.Equal(t, DefaultExecPath, e.Path)
	assert.NotEmpty(t, e.Args)
}

func TestFunc(t *testing.T) {
	called := false
	var r Restarter = Func(func() error {
		called = true
		return errors.New("exec failed")
	})
	assert.EqualError(t, r.Restart(), "exec failed")
	assert.True(t, called)
}
