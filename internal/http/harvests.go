package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/database/harvests"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/services"
)

type HarvestsController struct {
	store     HarvestStore
	overviews Overviews
	auditor   Auditor
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewHarvestsController(store HarvestStore, overviews Overviews, auditor Auditor, log logrus.FieldLogger) *HarvestsController {
	return &HarvestsController{
		store:     store,
		overviews: overviews,
		auditor:   auditor,
		log:       log.WithField("controller", "harvests"),
		now:       time.Now,
	}
}

func (hc *HarvestsController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/harvests", hc.List)
	group.POST("/harvests", hc.Create)
	group.GET("/harvests/:id", hc.Get)
	group.PATCH("/harvests/:id", hc.Update)
	group.DELETE("/harvests/:id", hc.Delete)
}

// harvestRequest names the product either by id or by name. A name not in
// the catalog is added to it.
type harvestRequest struct {
	HarvestDate  string   `json:"harvest_date"`
	Quantity     *float64 `json:"quantity"`
	Observations *string  `json:"observations"`
	HiveID       uint     `json:"hive_id"`
	ApiaryID     uint     `json:"apiary_id"`
	ProductID    uint     `json:"product_id"`
	ProductName  string   `json:"product_name"`
}

// List returns every harvest with hive, apiary and product names. ?facet=
// filters on the product name.
// GET /api/harvests
func (hc *HarvestsController) List(c *gin.Context) {
	var f services.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondBadRequest(c, "invalid filter")
		return
	}

	all, err := hc.overviews.HarvestDetails(c.Request.Context())
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

// GET /api/harvests/:id
func (hc *HarvestsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	harvest, ok := hc.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, harvest)
}

// Create records a harvest. With product_name the product is looked up or
// added and the apiary is taken from the hive when apiary_id is omitted.
// POST /api/harvests
func (hc *HarvestsController) Create(c *gin.Context) {
	var req harvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.HiveID == 0 {
		respondBadRequest(c, "hive_id is required")
		return
	}
	if req.Quantity == nil {
		respondBadRequest(c, "quantity is required")
		return
	}
	if *req.Quantity < 0 {
		respondBadRequest(c, "quantity cannot be negative")
		return
	}
	req.ProductName = strings.TrimSpace(req.ProductName)
	if req.ProductID == 0 && req.ProductName == "" {
		respondBadRequest(c, "product_id or product_name is required")
		return
	}
	if req.HarvestDate == "" {
		req.HarvestDate = hc.now().Format(dateLayout)
	}

	harvest := entities.Harvest{
		HarvestDate:  req.HarvestDate,
		Quantity:     *req.Quantity,
		Observations: req.Observations,
		HiveID:       req.HiveID,
		ApiaryID:     req.ApiaryID,
		ProductID:    req.ProductID,
	}

	ctx := c.Request.Context()
	var (
		id  uint
		err error
	)
	if req.ProductName != "" {
		id, harvest.ProductID, err = hc.store.CreateWithProduct(ctx, harvest, req.ProductName)
	} else {
		if req.ApiaryID == 0 {
			respondBadRequest(c, "apiary_id is required with product_id")
			return
		}
		id, err = hc.store.Create(ctx, harvest)
	}
	if err != nil {
		if errors.Is(err, harvests.ErrHiveNotFound) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "hive not found", Code: "hive_not_found"})
			return
		}
		respondStoreError(c, hc.log, err, "create harvest")
		return
	}
	harvest.ID = id
	if harvest.ApiaryID == 0 {
		if saved, err := hc.store.GetByID(ctx, id); err == nil && saved != nil {
			harvest = *saved
		}
	}

	if hc.auditor != nil {
		hc.auditor.LogCreate(auth.GetUserID(c), entities.EntityHarvest, id, harvest.HarvestDate)
	}
	respondCreated(c, harvest)
}

// PATCH /api/harvests/:id
func (hc *HarvestsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p entities.HarvestPatch
	if !bindPatch(c, &p) {
		return
	}
	if p.HarvestDate.IsNull() || p.Quantity.IsNull() || p.HiveID.IsNull() || p.ApiaryID.IsNull() || p.ProductID.IsNull() {
		respondBadRequest(c, "only observations can be null")
		return
	}
	if q, ok := p.Quantity.Get(); ok && q < 0 {
		respondBadRequest(c, "quantity cannot be negative")
		return
	}
	if _, ok := hc.load(c, id); !ok {
		return
	}

	if err := hc.store.Update(c.Request.Context(), id, p); err != nil {
		respondStoreError(c, hc.log, err, "update harvest")
		return
	}
	harvest, ok := hc.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, harvest)
}

// DELETE /api/harvests/:id
func (hc *HarvestsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	harvest, ok := hc.load(c, id)
	if !ok {
		return
	}

	if err := hc.store.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, hc.log, err, "delete harvest")
		return
	}

	if hc.auditor != nil {
		hc.auditor.LogDelete(auth.GetUserID(c), entities.EntityHarvest, id, harvest.HarvestDate, nil)
	}
	respondSuccess(c, "harvest deleted")
}

func (hc *HarvestsController) load(c *gin.Context, id uint) (*entities.Harvest, bool) {
	harvest, err := hc.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, hc.log, err, "get harvest")
		return nil, false
	}
	if harvest == nil {
		respondNotFound(c, "harvest")
		return nil, false
	}
	return harvest, true
}
