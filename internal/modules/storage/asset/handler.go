package asset

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mx-space/asset-gateway/internal/pkg/response"
)

// Handler exposes bulk deletion of provider-hosted assets.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the deletion routes on rg. authMW may be nil.
// dedupeMW, when set, guards only delete-by-public-ids: delete-by-tokens
// answers 200 for any outcome and must stay retryable for its failed tokens.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, dedupeMW gin.HandlerFunc) {
	chain := func(mws ...gin.HandlerFunc) []gin.HandlerFunc {
		out := make([]gin.HandlerFunc, 0, len(mws))
		for _, mw := range mws {
			if mw != nil {
				out = append(out, mw)
			}
		}
		return out
	}

	rg.POST("/delete-by-tokens", chain(authMW, h.deleteByTokens)...)
	rg.POST("/delete-by-public-ids", chain(authMW, dedupeMW, h.deleteByPublicIDs)...)
}

func (h *Handler) deleteByTokens(c *gin.Context) {
	var dto deleteByTokensDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	response.OK(c, h.svc.DeleteByTokens(c.Request.Context(), dto.DeleteTokens))
}

func (h *Handler) deleteByPublicIDs(c *gin.Context) {
	var dto deleteByPublicIDsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.Detail(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.svc.DeleteByPublicIDs(c.Request.Context(), dto.PublicIDs, dto.resourceType(), dto.deliveryType())
	if err != nil {
		response.Detail(c, http.StatusInternalServerError, "Cloudinary delete failed: "+err.Error())
		return
	}
	response.OK(c, DeletionResult{OK: true, Result: res})
}
