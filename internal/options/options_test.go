package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type bufferConfig struct {
	threshold int
	path      string
	calls     []string
}

func (c *bufferConfig) Validate() error {
	if c.threshold <= 0 {
		return errors.New("threshold must be positive")
	}

	return nil
}

func withThreshold(n int) Option[*bufferConfig] {
	return New(func(c *bufferConfig) error {
		if n < 0 {
			return errors.New("negative threshold")
		}
		c.threshold = n
		c.calls = append(c.calls, "threshold")

		return nil
	})
}

func withPath(p string) Option[*bufferConfig] {
	return NoError(func(c *bufferConfig) {
		c.path = p
		c.calls = append(c.calls, "path")
	})
}

func TestApply_Order(t *testing.T) {
	cfg := &bufferConfig{}
	err := Apply(cfg, withPath("/tmp/x"), nil, withThreshold(10))
	require.NoError(t, err)
	require.Equal(t, []string{"path", "threshold"}, cfg.calls)
	require.Equal(t, 10, cfg.threshold)
	require.Equal(t, "/tmp/x", cfg.path)
}

func TestApply_StopsAtFirstError(t *testing.T) {
	cfg := &bufferConfig{}
	err := Apply(cfg, withThreshold(-1), withPath("unused"))
	require.EqualError(t, err, "negative threshold")
	require.Empty(t, cfg.path, "options after the failing one must not run")
}

func TestApplyAndValidate(t *testing.T) {
	cfg := &bufferConfig{}
	require.EqualError(t, ApplyAndValidate(cfg, withPath("a")), "threshold must be positive")

	cfg = &bufferConfig{}
	require.NoError(t, ApplyAndValidate(cfg, withThreshold(5)))
}
