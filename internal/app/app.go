package app

import (
	"quoteflow/internal/cache"
	"quoteflow/internal/repository"
)

type App struct {
	ToolRepo     repository.ToolRepo
	SessionRepo  repository.SessionRepo
	LeadRepo     repository.LeadRepo
	ToolCache    cache.ToolCache
	SessionCache cache.SessionCache
}
