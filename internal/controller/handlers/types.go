package handlers

import (
	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/Freeeeeet/supervision/internal/storage"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	store      storage.Store
	requests   *service.RequestService
	shortlists *service.ShortlistService
	unbinds    *service.UnbindService
	logger     *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(
	store storage.Store,
	requests *service.RequestService,
	shortlists *service.ShortlistService,
	unbinds *service.UnbindService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		store:      store,
		requests:   requests,
		shortlists: shortlists,
		unbinds:    unbinds,
		logger:     logger,
	}
}
