package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/services"
)

// dateLayout is used when a create request leaves its date empty.
const dateLayout = "2006-01-02"

// HiveCounter tallies the hives of an apiary.
type HiveCounter interface {
	CountForApiary(ctx context.Context, apiaryID uint) (entities.HiveCounts, error)
}

type ApiariesController struct {
	store     ApiaryStore
	hives     HiveCounter
	overviews Overviews
	auditor   Auditor
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewApiariesController(store ApiaryStore, hives HiveCounter, overviews Overviews, auditor Auditor, log logrus.FieldLogger) *ApiariesController {
	return &ApiariesController{
		store:     store,
		hives:     hives,
		overviews: overviews,
		auditor:   auditor,
		log:       log.WithField("controller", "apiaries"),
		now:       time.Now,
	}
}

func (ac *ApiariesController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/apiaries", ac.List)
	group.GET("/apiaries/municipalities", ac.Municipalities)
	group.POST("/apiaries", ac.Create)
	group.GET("/apiaries/:id", ac.Get)
	group.PATCH("/apiaries/:id", ac.Update)
	group.DELETE("/apiaries/:id", ac.Delete)
	group.GET("/apiaries/:id/hives", ac.Hives)
}

type apiaryRequest struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Municipality *string  `json:"municipality"`
	CreationDate string   `json:"creation_date"`
}

// List returns apiary summaries, optionally filtered by ?q= and ?facet=
// (municipality).
// GET /api/apiaries
func (ac *ApiariesController) List(c *gin.Context) {
	var f services.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondBadRequest(c, "invalid filter")
		return
	}

	all, err := ac.overviews.ApiarySummaries(c.Request.Context())
	if err != nil {
		respondInternalError(c, ac.log, err, "list apiaries")
		return
	}

	list := services.FilterApiaries(all, f)
	c.JSON(http.StatusOK, ListResponse{
		Data:   list,
		Total:  len(list),
		Facets: services.Municipalities(all),
	})
}

// Municipalities returns the distinct non-empty municipalities.
// GET /api/apiaries/municipalities
func (ac *ApiariesController) Municipalities(c *gin.Context) {
	names, err := ac.store.UniqueMunicipalities(c.Request.Context())
	if err != nil {
		respondInternalError(c, ac.log, err, "list municipalities")
		return
	}
	c.JSON(http.StatusOK, gin.H{"municipalities": names})
}

// Get returns one apiary with its hive counts.
// GET /api/apiaries/:id
func (ac *ApiariesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := ac.overviews.ApiarySummary(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, ac.log, err, "get apiary")
		return
	}
	if summary == nil {
		respondNotFound(c, "apiary")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Create stores a new apiary owned by the signed-in user. The creation
// date defaults to today.
// POST /api/apiaries
func (ac *ApiariesController) Create(c *gin.Context) {
	var req apiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondBadRequest(c, "name is required")
		return
	}
	if req.CreationDate == "" {
		req.CreationDate = ac.now().Format(dateLayout)
	}

	apiary := entities.Apiary{
		Name:         req.Name,
		Description:  req.Description,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		Municipality: req.Municipality,
		CreationDate: req.CreationDate,
		UserRef:      auth.UserRef(c),
	}
	id, err := ac.store.Create(c.Request.Context(), apiary)
	if err != nil {
		respondStoreError(c, ac.log, err, "create apiary")
		return
	}
	apiary.ID = id

	if ac.auditor != nil {
		ac.auditor.LogCreate(auth.GetUserID(c), entities.EntityApiary, id, apiary.Name)
	}
	respondCreated(c, apiary)
}

// Update applies a partial update. Absent fields are left alone and null
// clears a nullable field.
// PATCH /api/apiaries/:id
func (ac *ApiariesController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p entities.ApiaryPatch
	if !bindPatch(c, &p) {
		return
	}
	if p.Name.IsNull() {
		respondBadRequest(c, "name cannot be null")
		return
	}
	if p.PhotoRef.IsSet() || p.UserRef.IsSet() {
		respondBadRequest(c, "photo_ref and user_ref cannot be patched")
		return
	}

	ctx := c.Request.Context()
	if existing, err := ac.store.GetByID(ctx, id); err != nil {
		respondInternalError(c, ac.log, err, "get apiary")
		return
	} else if existing == nil {
		respondNotFound(c, "apiary")
		return
	}

	if err := ac.store.Update(ctx, id, p); err != nil {
		respondStoreError(c, ac.log, err, "update apiary")
		return
	}

	updated, err := ac.store.GetByID(ctx, id)
	if err != nil {
		respondInternalError(c, ac.log, err, "get apiary")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes an apiary together with its hives, inspections and
// harvests.
// DELETE /api/apiaries/:id
func (ac *ApiariesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	apiary, err := ac.store.GetByID(ctx, id)
	if err != nil {
		respondInternalError(c, ac.log, err, "get apiary")
		return
	}
	if apiary == nil {
		respondNotFound(c, "apiary")
		return
	}

	var cascaded map[string]int64
	if ac.hives != nil {
		counts, err := ac.hives.CountForApiary(ctx, id)
		if err != nil {
			respondInternalError(c, ac.log, err, "count hives")
			return
		}
		if counts.Total > 0 {
			cascaded = map[string]int64{entities.EntityHive: counts.Total}
		}
	}

	if err := ac.store.Delete(ctx, id); err != nil {
		respondStoreError(c, ac.log, err, "delete apiary")
		return
	}

	if ac.auditor != nil {
		ac.auditor.LogDelete(auth.GetUserID(c), entities.EntityApiary, id, apiary.Name, cascaded)
	}
	respondSuccess(c, "apiary deleted")
}

// Hives returns the hive overviews of one apiary, filtered like the hive
// list.
// GET /api/apiaries/:id/hives
func (ac *ApiariesController) Hives(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var f services.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondBadRequest(c, "invalid filter")
		return
	}

	ctx := c.Request.Context()
	if apiary, err := ac.store.GetByID(ctx, id); err != nil {
		respondInternalError(c, ac.log, err, "get apiary")
		return
	} else if apiary == nil {
		respondNotFound(c, "apiary")
		return
	}

	all, err := ac.overviews.HiveOverviewsForApiary(ctx, id)
	if err != nil {
		respondInternalError(c, ac.log, err, "list hives")
		return
	}
	list := services.FilterHives(all, f)
	c.JSON(http.StatusOK, ListResponse{
		Data:   list,
		Total:  len(list),
		Facets: services.HiveStates(all),
	})
}
