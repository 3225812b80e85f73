package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LunchTimeCode/outerspace/config"
	"github.com/LunchTimeCode/outerspace/token"
)

func TestNewDependenciesWithSharedSecret(t *testing.T) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			HS256Secret: "dependencies-test-secret",
			JWKSTimeout: time.Second,
		},
		Environment: "test",
	}

	deps, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, "shared-secret", deps.KeyMaterial.Mode())
	assert.NotNil(t, deps.AuthMiddleware)
	assert.Nil(t, deps.DB)
	assert.Nil(t, deps.Users)
}

func TestNewDependenciesWithoutKeySource(t *testing.T) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWKSTimeout: time.Second,
		},
		Environment: "test",
	}

	deps, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	assert.Nil(t, deps)
	assert.ErrorIs(t, err, token.ErrNoKeyMaterial)
}

func TestNewDependenciesUnreachableKeyServer(t *testing.T) {
	// Port 1 is reserved and nothing listens there, so the key fetch fails
	// and there is no fallback secret.
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWKSURL:     "http://127.0.0.1:1/keys",
			JWKSTimeout: 250 * time.Millisecond,
		},
		Environment: "test",
	}

	deps, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	assert.Nil(t, deps)
	assert.ErrorIs(t, err, token.ErrNoKeyMaterial)
}

func TestDependenciesClose(t *testing.T) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			HS256Secret: "dependencies-test-secret",
			JWKSTimeout: time.Second,
		},
		Environment: "test",
	}

	deps, err := NewDependencies(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, deps.Close())
}
