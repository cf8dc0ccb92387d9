package server

import (
	"prngkit/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(
	NewGRPCServer,
	NewHTTPServer,
	NewValidationStreamServers,
)

// NewValidationStreamServers 创建校验请求 Stream 服务器，Redis 未配置时不启动
func NewValidationStreamServers(
	rdb *redis.Client,
	handler *service.ValidationStreamService,
	logger log.Logger,
) []transport.Server {
	helper := log.NewHelper(logger)

	if rdb == nil {
		helper.Warn("redis not available, skip validation stream server")
		return nil
	}

	return []transport.Server{NewValidationStreamServer(rdb, logger, handler)}
}
