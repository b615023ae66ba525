package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

func TestHealthFollowsSetServing(t *testing.T) {
	server, err := NewServer("0", "imagematch")
	require.NoError(t, err)
	go func() { _ = server.Start() }()
	t.Cleanup(server.GracefulStop)

	conn, err := grpc.NewClient(server.GetListener().Addr().String(),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := grpc_health_v1.NewHealthClient(conn)
	check := func(service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		res, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
		require.NoError(t, err)
		return res.GetStatus()
	}

	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(""))
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check("imagematch"))

	server.SetServing(false)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, check("imagematch"))

	server.SetServing(true)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, check(""))
}

func TestRecoveryInterceptorTurnsPanicIntoInternal(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test.Service/Boom"}

	_, err := recoveryInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})

	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}
