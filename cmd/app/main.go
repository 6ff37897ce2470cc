package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/config"
	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/service"
	"github.com/Rogue-Bear-Innovations/bookmarking-back/internal/transport"
)

func main() {
	app := fx.New(
		config.Module,
		db.Module,
		service.Module,
		transport.Module,
		fx.Provide(
			func() (*zap.SugaredLogger, error) {
				l, err := zap.NewProduction()
				if err != nil {
					return nil, err
				}
				return l.Sugar(), nil
			},
		),
		fx.Invoke(func(server *transport.HTTPServer) {}),
	)

	app.Run()
}
