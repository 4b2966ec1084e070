package advocate

import "github.com/gin-gonic/gin"

// AdvocateModule implements the app.Module interface for the advocate domain.
type AdvocateModule struct {
	handler     *AdvocateHandler
	pageHandler *AdvocatePageHandler
	allowSeed   bool
}

// NewModule creates a new AdvocateModule with the given handlers. The seed
// endpoint is only registered when allowSeed is true.
// Panics if h or ph is nil.
func NewModule(h *AdvocateHandler, ph *AdvocatePageHandler, allowSeed bool) *AdvocateModule {
	if h == nil {
		panic("advocate.NewModule: handler must not be nil")
	}
	if ph == nil {
		panic("advocate.NewModule: pageHandler must not be nil")
	}
	return &AdvocateModule{handler: h, pageHandler: ph, allowSeed: allowSeed}
}

// RegisterRoutes registers advocate API and page routes.
func (m *AdvocateModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/advocates", m.handler.List)
	if m.allowSeed {
		api.POST("/seed", m.handler.Seed)
	}

	if pages != nil {
		pages.GET("/", m.pageHandler.IndexPage)
	}
}
