package refresh

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Refresher *Refresher
}

func NewHandler(r *Refresher) *Handler {
	return &Handler{Refresher: r}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.refreshAll) // POST /refresh
}

func (h *Handler) refreshAll(c *gin.Context) {
	results, err := h.Refresher.RefreshAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"updated": ok,
		"failed":  len(results) - ok,
		"results": results,
	})
}
