package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	tests := []struct {
		env       string
		wantDebug bool
	}{
		{env: "development", wantDebug: true},
		{env: "production", wantDebug: false},
		{env: "test", wantDebug: false},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			require.NoError(t, Init(tt.env))
			assert.Equal(t, tt.wantDebug, zap.L().Core().Enabled(zapcore.DebugLevel))
		})
	}
}
