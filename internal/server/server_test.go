package server

import (
	"context"
	"testing"

	"prngkit/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestMessageGenerator(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
		want   string
		ok     bool
	}{
		{"present", map[string]interface{}{"generator": "mcg"}, "mcg", true},
		{"trimmed", map[string]interface{}{"generator": "  xorshift "}, "xorshift", true},
		{"missing", map[string]interface{}{"uid": "x"}, "", false},
		{"empty", map[string]interface{}{"generator": ""}, "", false},
		{"nil", map[string]interface{}{"generator": nil}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := messageGenerator(redis.XMessage{ID: "1-0", Values: tt.values})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewValidationStreamServers_WithoutRedis(t *testing.T) {
	assert.Nil(t, NewValidationStreamServers(nil, nil, log.DefaultLogger))
}

func TestNewValidationStreamServer_Defaults(t *testing.T) {
	s := NewValidationStreamServer(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), log.DefaultLogger, nil)
	assert.Equal(t, keyStreamValidations, s.stream)
	assert.Equal(t, streamGroup, s.group)
	assert.Contains(t, s.consumer, streamGroup+"-")

	assert.EqualError(t, s.Start(context.Background()), "validation stream handler is nil")
}

func TestNewGRPCServer(t *testing.T) {
	srv := NewGRPCServer(&conf.Server{GRPC: &conf.Endpoint{Addr: "127.0.0.1:0"}}, log.DefaultLogger)
	assert.NotNil(t, srv)
	assert.Contains(t, srv.GetServiceInfo(), healthpb.Health_ServiceDesc.ServiceName)
}
