//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"prngkit/internal/biz"
	"prngkit/internal/conf"
	"prngkit/internal/data"
	"prngkit/internal/server"
	"prngkit/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Validation, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}

// wireSuite init the validation usecase without servers.
func wireSuite(*conf.Data, *conf.Validation, log.Logger) (*biz.ValidationUsecase, func(), error) {
	panic(wire.Build(data.ProviderSet, biz.ProviderSet))
}
