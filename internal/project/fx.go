package project

import (
	"github.com/taylorbuilt/drawline/internal/project/repository"
	"github.com/taylorbuilt/drawline/internal/project/service"
	"go.uber.org/fx"
)

var Module = fx.Module("project.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
