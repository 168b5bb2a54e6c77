package organization

import (
	"github.com/smallbiznis/offerly/internal/organization/repository"
	"github.com/smallbiznis/offerly/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
