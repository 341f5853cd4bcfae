package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/beesmart/beesmart/internal/auth"
	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/entities"
)

type ProductsController struct {
	store   ProductStore
	auditor Auditor
	log     logrus.FieldLogger
}

func NewProductsController(store ProductStore, auditor Auditor, log logrus.FieldLogger) *ProductsController {
	return &ProductsController{
		store:   store,
		auditor: auditor,
		log:     log.WithField("controller", "products"),
	}
}

func (pc *ProductsController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/products", pc.List)
	group.POST("/products", pc.Create)
	group.GET("/products/:id", pc.Get)
	group.PATCH("/products/:id", pc.Update)
	group.DELETE("/products/:id", pc.Delete)
}

type productRequest struct {
	Name string `json:"name"`
}

// List returns the catalog ordered by name.
// GET /api/products
func (pc *ProductsController) List(c *gin.Context) {
	list, err := pc.store.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, pc.log, err, "list products")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: list, Total: len(list)})
}

// GET /api/products/:id
func (pc *ProductsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, ok := pc.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, product)
}

// Create adds a product. A name already in the catalog, compared without
// case, is a conflict.
// POST /api/products
func (pc *ProductsController) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondBadRequest(c, "name is required")
		return
	}

	ctx := c.Request.Context()
	existing, err := pc.store.FindByName(ctx, name)
	if err != nil {
		respondInternalError(c, pc.log, err, "find product")
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "product already exists", "product": existing})
		return
	}

	product := entities.Product{Name: name}
	id, err := pc.store.Create(ctx, product)
	if err != nil {
		respondStoreError(c, pc.log, err, "create product")
		return
	}
	product.ID = id

	if pc.auditor != nil {
		pc.auditor.LogCreate(auth.GetUserID(c), entities.EntityProduct, id, name)
	}
	respondCreated(c, product)
}

// PATCH /api/products/:id
func (pc *ProductsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var p entities.ProductPatch
	if !bindPatch(c, &p) {
		return
	}
	if p.Name.IsNull() {
		respondBadRequest(c, "name cannot be null")
		return
	}
	if _, ok := pc.load(c, id); !ok {
		return
	}

	if err := pc.store.Update(c.Request.Context(), id, p); err != nil {
		respondStoreError(c, pc.log, err, "update product")
		return
	}
	product, ok := pc.load(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, product)
}

// Delete removes a product. Products still referenced by harvests cannot
// be deleted.
// DELETE /api/products/:id
func (pc *ProductsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, ok := pc.load(c, id)
	if !ok {
		return
	}

	if err := pc.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrConstraint) {
			c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error: "product is used by harvests",
				Code:  "product_in_use",
			})
			return
		}
		respondStoreError(c, pc.log, err, "delete product")
		return
	}

	if pc.auditor != nil {
		pc.auditor.LogDelete(auth.GetUserID(c), entities.EntityProduct, id, product.Name, nil)
	}
	respondSuccess(c, "product deleted")
}

func (pc *ProductsController) load(c *gin.Context, id uint) (*entities.Product, bool) {
	product, err := pc.store.GetByID(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, pc.log, err, "get product")
		return nil, false
	}
	if product == nil {
		respondNotFound(c, "product")
		return nil, false
	}
	return product, true
}
