package authapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigWithDefaults(t *testing.T) {
	tests := []struct {
		in   Config
		want Config
	}{
		{in: Config{}, want: DefaultConfig()},
		{in: Config{MaxBodyBytes: -1, QueryTimeout: -time.Second}, want: DefaultConfig()},
		{in: Config{MaxBodyBytes: 512, QueryTimeout: time.Second}, want: Config{MaxBodyBytes: 512, QueryTimeout: time.Second}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.in.withDefaults(), "withDefaults(%+v)", tc.in)
	}
}
