package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/services"
)

type HivesController struct {
	store     HiveStore
	overviews Overviews
	auditor   Auditor
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewHivesController(store HiveStore, overviews Overviews, auditor Auditor, log logrus.FieldLogger) *HivesController {
	return &HivesController{
		store:     store,
		overviews: overviews,
		auditor:   auditor,
		log:       log.WithField("controller", "hives"),
		now:       time.Now,
	}
}

func (hc *HivesController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/hives", hc.List)
	group.GET("/hives/states", hc.States)
	group.POST("/hives", hc.Create)
	group.GET("/hives/:id", hc.Get)
	group.PATCH("/hives/:id", hc.Update)
	group.DELETE("/hives/:id", hc.Delete)
	group.GET("/hives/:id/inspections", hc.Inspections)
	group.GET("/hives/:id/harvests", hc.Harvests)
}

type hiveRequest struct {
	Code             string  `json:"code"`
	StateLabel       *string `json:"state_label"`
	InstallationDate string  `json:"installation_date"`
	Observations     *string `json:"observations"`
	ApiaryID         uint    `json:"apiary_id"`
}

// List returns every hive with its apiary name and latest inspection.
// ?facet= filters on the hive state.
// GET /api/hives
func (hc *HivesController) List(c *gin.Context) {
	var f services.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondBadRequest(c, "invalid filter")
		return
	}

	all, err := hc.overviews.HiveOverviews(c.Request.Context())
	if err != nil {
		respondInternalError(c, hc.log, err, "list hives")
		return
	}
	list := services.FilterHives(all, f)
	c.JSON(http.StatusOK, ListResponse{
		Data:   list,
		Total:  len(list),
		Facets: services.HiveStates(all),
	})
}

// States returns the state labels offered for hives and inspections.
// GET /api/hives/states
func (hc *HivesController) States(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"states": entities.DefaultHiveStates,
		"active": entities.ActiveHiveStates,
	})
}

// GET /api/hives/:id
func (hc *HivesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	hive, ok := hc.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, hive)
}

// Create stores a new hive. The installation date defaults to today and
// apiary_id must name an existing apiary.
// POST /api/hives
func (hc *HivesController) Create(c *gin.Context) {
	var req hiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		respondBadRequest(c, "code is required")
		return
	}
	if req.ApiaryID == 0 {
		respondBadRequest(c, "apiary_id is required")
		return
	}
	if req.InstallationDate == "" {
		req.InstallationDate = hc.now().Format(dateLayout)
	}

	hive := entities.Hive{
		Code:             req.Code,
		StateLabel:       req.StateLabel,
		InstallationDate: req.InstallationDate,
		Observations:     req.Observations,
		ApiaryID:         req.ApiaryID,
	}
	id, err := hc.store.Create(c.Request.Context(), hive)
	if err != nil {
		respondStoreError(c, hc.log, err, "create hive")
		return
	}
	hive.ID = id

	if hc.auditor != nil {
		hc.auditor.LogCreate(auth.GetUserID(c), entities.EntityHive, id, hive.Code)
	}
	respondCreated(c, hive)
}

// PATCH /api/hives/:id
func (hc *HivesController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p entities.HivePatch
	if !bindPatch(c, &p) {
		return
	}
	if p.Code.IsNull() || p.InstallationDate.IsNull() || p.ApiaryID.IsNull() {
		respondBadRequest(c, "code, installation_date and apiary_id cannot be null")
		return
	}
	if p.PhotoRef.IsSet() {
		respondBadRequest(c, "photo_ref is managed by the photo endpoints")
		return
	}
	if _, ok := hc.load(c, id); !ok {
		return
	}

	ctx := c.Request.Context()
	if err := hc.store.Update(ctx, id, p); err != nil {
		respondStoreError(c, hc.log, err, "update hive")
		return
	}
	hive, ok := hc.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, hive)
}

// Delete removes a hive together with its inspections and harvests.
// DELETE /api/hives/:id
func (hc *HivesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	hive, ok := hc.load(c, id)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	cascaded, err := hc.dependents(c, id)
	if err != nil {
		respondInternalError(c, hc.log, err, "count dependents")
		return
	}
	if err := hc.store.Delete(ctx, id); err != nil {
		respondStoreError(c, hc.log, err, "delete hive")
		return
	}

	if hc.auditor != nil {
		hc.auditor.LogDelete(auth.GetUserID(c), entities.EntityHive, id, hive.Code, cascaded)
	}
	respondSuccess(c, "hive deleted")
}

// Inspections returns the inspections of one hive, newest first.
// GET /api/hives/:id/inspections
func (hc *HivesController) Inspections(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var f services.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondBadRequest(c, "invalid filter")
		return
	}
	if _, ok := hc.load(c, id); !ok {
		return
	}

	all, err := hc.overviews.InspectionDetailsForHive(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, hc.log, err, "list inspections")
		return
	}
	list := services.FilterInspections(all, f)
	c.JSON(http.StatusOK, ListResponse{
		Data:   list,
		Total:  len(list),
		Facets: services.InspectionStates(all),
	})
}

// Harvests returns the harvests of one hive, newest first.
// GET /api/hives/:id/harvests
func (hc *HivesController) Harvests(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var f services.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondBadRequest(c, "invalid filter")
		return
	}
	if _, ok := hc.load(c, id); !ok {
		return
	}

	all, err := hc.overviews.HarvestDetailsForHive(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, hc.log, err, "list harvests")
		return
	}
	list := services.FilterHarvests(all, f)
	c.JSON(http.StatusOK, ListResponse{
		Data:   list,
		Total:  len(list),
		Facets: services.HarvestProducts(all),
	})
}

// load fetches a hive, responding 404 or 500 when it cannot.
func (hc *HivesController) load(c *gin.Context, id uint) (*entities.Hive, bool) {
	hive, err := hc.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, hc.log, err, "get hive")
		return nil, false
	}
	if hive == nil {
		respondNotFound(c, "hive")
		return nil, false
	}
	return hive, true
}

func (hc *HivesController) dependents(c *gin.Context, id uint) (map[string]int64, error) {
	ctx := c.Request.Context()
	inspections, err := hc.overviews.InspectionDetailsForHive(ctx, id)
	if err != nil {
		return nil, err
	}
	harvests, err := hc.overviews.HarvestDetailsForHive(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64)
	if n := len(inspections); n > 0 {
		out[entities.EntityInspection] = int64(n)
	}
	if n := len(harvests); n > 0 {
		out[entities.EntityHarvest] = int64(n)
	}
	return out, nil
}
