package server

import (
	"prngkit/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"
)

// NewGRPCServer new a gRPC server.
// 目前只对外提供 kratos 内置的健康检查与元数据服务
func NewGRPCServer(c *conf.Server, logger log.Logger) *grpc.Server {
	var opts = []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
		),
	}
	if c.GetGRPC().GetNetwork() != "" {
		opts = append(opts, grpc.Network(c.GetGRPC().GetNetwork()))
	}
	if c.GetGRPC().GetAddr() != "" {
		opts = append(opts, grpc.Address(c.GetGRPC().GetAddr()))
	}
	if c.GetGRPC().GetTimeout() > 0 {
		opts = append(opts, grpc.Timeout(c.GetGRPC().GetTimeout()))
	}
	srv := grpc.NewServer(opts...)
	log.NewHelper(logger).Infof("grpc server configured: addr=%s", c.GetGRPC().GetAddr())
	return srv
}
