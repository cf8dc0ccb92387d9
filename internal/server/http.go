package server

import (
	"prngkit/internal/conf"
	"prngkit/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, validation *service.ValidationService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.GetHTTP().GetNetwork() != "" {
		opts = append(opts, http.Network(c.GetHTTP().GetNetwork()))
	}
	if c.GetHTTP().GetAddr() != "" {
		opts = append(opts, http.Address(c.GetHTTP().GetAddr()))
	}
	if c.GetHTTP().GetTimeout() > 0 {
		opts = append(opts, http.Timeout(c.GetHTTP().GetTimeout()))
	}
	srv := http.NewServer(opts...)
	service.RegisterValidationHTTPServer(srv, validation)
	return srv
}
