package storage

import (
	"context"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/capture-backend/pkg/docstore"
	"go.uber.org/zap"
)

func TestGatewayConfigFromEnv(t *testing.T) {
	t.Setenv("DOCSTORE_BACKEND", "MEMORY")
	t.Setenv("DDB_TABLE_ORDERS", "Orders")

	cfg := GatewayConfigFromEnv()
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "capture_", cfg.TablePrefix)
	assert.Equal(t, map[string]string{docstore.Orders: "Orders"}, cfg.Tables)
}

func TestOpenGatewayMemory(t *testing.T) {
	g, closeFn, err := OpenGateway(context.Background(), GatewayConfig{Backend: BackendMemory}, sdkaws.Config{}, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &docstore.MemoryGateway{}, g)
}

func TestOpenGatewayUnknown(t *testing.T) {
	_, _, err := OpenGateway(context.Background(), GatewayConfig{Backend: "sqlite"}, sdkaws.Config{}, zap.NewNop())
	assert.Error(t, err)
}
