package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/services"
)

type InspectionsController struct {
	store     InspectionStore
	overviews Overviews
	auditor   Auditor
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewInspectionsController(store InspectionStore, overviews Overviews, auditor Auditor, log logrus.FieldLogger) *InspectionsController {
	return &InspectionsController{
		store:     store,
		overviews: overviews,
		auditor:   auditor,
		log:       log.WithField("controller", "inspections"),
		now:       time.Now,
	}
}

func (ic *InspectionsController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/inspections", ic.List)
	group.POST("/inspections", ic.Create)
	group.GET("/inspections/:id", ic.Get)
	group.PATCH("/inspections/:id", ic.Update)
	group.DELETE("/inspections/:id", ic.Delete)
}

type inspectionRequest struct {
	InspectionDate string  `json:"inspection_date"`
	StateLabel     *string `json:"state_label"`
	Observations   *string `json:"observations"`
	HiveID         uint    `json:"hive_id"`
}

// List returns every inspection with hive and apiary names. ?facet=
// filters on the recorded state.
// GET /api/inspections
func (ic *InspectionsController) List(c *gin.Context) {
	var f services.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondBadRequest(c, "invalid filter")
		return
	}

	all, err := ic.overviews.InspectionDetails(c.Request.Context())
	if err != nil {
		respondInternalError(c, ic.log, err, "list inspections")
		return
	}
	list := services.FilterInspections(all, f)
	c.JSON(http.StatusOK, ListResponse{
		Data:   list,
		Total:  len(list),
		Facets: services.InspectionStates(all),
	})
}

// GET /api/inspections/:id
func (ic *InspectionsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	inspection, ok := ic.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inspection)
}

// Create records an inspection. A state label, when given, also becomes
// the hive's current state.
// POST /api/inspections
func (ic *InspectionsController) Create(c *gin.Context) {
	var req inspectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.HiveID == 0 {
		respondBadRequest(c, "hive_id is required")
		return
	}
	if req.InspectionDate == "" {
		req.InspectionDate = ic.now().Format(dateLayout)
	}

	inspection := entities.Inspection{
		InspectionDate: req.InspectionDate,
		StateLabel:     req.StateLabel,
		Observations:   req.Observations,
		HiveID:         req.HiveID,
	}
	id, err := ic.store.Record(c.Request.Context(), inspection)
	if err != nil {
		respondStoreError(c, ic.log, err, "record inspection")
		return
	}
	inspection.ID = id

	if ic.auditor != nil {
		ic.auditor.LogCreate(auth.GetUserID(c), entities.EntityInspection, id, inspection.InspectionDate)
	}
	respondCreated(c, inspection)
}

// Update revises an inspection. A new state label is copied to the hive.
// PATCH /api/inspections/:id
func (ic *InspectionsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p entities.InspectionPatch
	if !bindPatch(c, &p) {
		return
	}
	if p.InspectionDate.IsNull() || p.HiveID.IsNull() {
		respondBadRequest(c, "inspection_date and hive_id cannot be null")
		return
	}
	if _, ok := ic.load(c, id); !ok {
		return
	}

	if err := ic.store.Revise(c.Request.Context(), id, p); err != nil {
		respondStoreError(c, ic.log, err, "revise inspection")
		return
	}
	inspection, ok := ic.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inspection)
}

// DELETE /api/inspections/:id
func (ic *InspectionsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	inspection, ok := ic.load(c, id)
	if !ok {
		return
	}

	if err := ic.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, ic.log, err, "delete inspection")
		return
	}

	if ic.auditor != nil {
		ic.auditor.LogDelete(auth.GetUserID(c), entities.EntityInspection, id, inspection.InspectionDate, nil)
	}
	respondSuccess(c, "inspection deleted")
}

func (ic *InspectionsController) load(c *gin.Context, id uint) (*entities.Inspection, bool) {
	inspection, err := ic.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, ic.log, err, "get inspection")
		return nil, false
	}
	if inspection == nil {
		respondNotFound(c, "inspection")
		return nil, false
	}
	return inspection, true
}
