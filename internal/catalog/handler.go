package catalog

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gamehub/internal/prices"
	"gamehub/internal/store"
	"gamehub/pkg/models"
)

type Handler struct {
	Repo       *Repo
	Prices     *prices.Repo
	Stores     *store.Registry
	Reconciler *Reconciler
}

func NewHandler(repo *Repo, priceRepo *prices.Repo, stores *store.Registry, rc *Reconciler) *Handler {
	return &Handler{Repo: repo, Prices: priceRepo, Stores: stores, Reconciler: rc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)          // GET /games
	rg.GET("/search", h.search) // GET /games/search?q=
	rg.GET("/:id", h.getByID)   // GET /games/:id
	rg.POST("", h.addFromStore) // POST /games
}

func (h *Handler) RegisterStoreRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listStores) // GET /stores
}

func (h *Handler) list(c *gin.Context) {
	games, err := h.Repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": len(games),
		"items": games,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	g, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	priceRows, err := h.Prices.ListByGame(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prices failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"game":   g,
		"prices": priceRows,
	})
}

// storeResult is one search hit tagged with the store it came from.
type storeResult struct {
	Store string               `json:"store"`
	Game  models.GameCandidate `json:"game"`
}

// search fans the query out to every registered store. A store that
// errors contributes nothing instead of failing the whole request.
func (h *Handler) search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	var (
		results []storeResult
		errors  []string
	)
	for _, adapter := range h.Stores.All() {
		found, err := adapter.SearchGames(c.Request.Context(), q)
		if err != nil {
			errors = append(errors, adapter.Name())
			continue
		}
		for _, g := range found {
			results = append(results, storeResult{Store: adapter.Name(), Game: g})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"query":         q,
		"total":         len(results),
		"items":         results,
		"failed_stores": errors,
	})
}

type addGameRequest struct {
	Store      string `json:"store" binding:"required"`
	ExternalID string `json:"external_id" binding:"required"`
}

func (h *Handler) addFromStore(c *gin.Context) {
	var req addGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "store and external_id required"})
		return
	}

	g, err := h.Reconciler.ReconcileAndAttach(c.Request.Context(), req.Store, req.ExternalID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	priceRows, err := h.Prices.ListByGame(c.Request.Context(), g.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prices failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"game":   g,
		"prices": priceRows,
	})
}

func (h *Handler) listStores(c *gin.Context) {
	stores, err := h.Repo.ListStores(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": stores})
}
