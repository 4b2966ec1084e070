package advocate

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/advocates/internal/domain"
	"github.com/simp-lee/advocates/internal/pkg"
)

// AdvocateHandler handles REST API requests for the advocate resource.
type AdvocateHandler struct {
	svc domain.AdvocateService
}

// NewAdvocateHandler creates a new AdvocateHandler with the given service.
func NewAdvocateHandler(svc domain.AdvocateService) *AdvocateHandler {
	return &AdvocateHandler{svc: svc}
}

// List handles GET /api/advocates.
func (h *AdvocateHandler) List(c *gin.Context) {
	var req ListAdvocatesRequest
	if !pkg.BindQueryAndValidate(c, &req) {
		return
	}

	advocates, err := h.svc.ListAdvocates(c.Request.Context(), req.SearchQuery())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	if advocates == nil {
		advocates = []domain.Advocate{}
	}

	pkg.Success(c, ListAdvocatesResponse{Data: advocates})
}

// Seed handles POST /api/seed.
func (h *AdvocateHandler) Seed(c *gin.Context) {
	result, err := h.svc.Seed(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, SeedResponse{
		Success: true,
		Message: result.Message,
		Count:   result.Count,
		Records: result.Records,
	})
}
