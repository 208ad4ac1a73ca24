package api

import (
	"net/http"
	"strconv"

	"shop-backend/internal/service"
	"shop-backend/internal/store"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listCategories(c *gin.Context) {
	offset, limit := pagination(c)
	activeOnly := c.DefaultQuery("active", "true") != "false"

	categories, err := h.catalogService.ListCategories(c.Request.Context(), activeOnly, offset, limit)
	if err != nil {
		respondErr(c, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) getCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "Category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) getCategoryBySlug(c *gin.Context) {
	category, err := h.catalogService.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondErr(c, err, "Category not found")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) createCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err, "Failed to update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondErr(c, err, "Failed to delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reorderCategories(c *gin.Context) {
	// Body is {"positions": {"<category_id>": <sort_order>, ...}}.
	var req struct {
		Positions map[string]int `json:"positions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	positions := make(map[int64]int, len(req.Positions))
	for idStr, pos := range req.Positions {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id: " + idStr})
			return
		}
		positions[id] = pos
	}

	if err := h.catalogService.ReorderCategories(c.Request.Context(), positions); err != nil {
		respondErr(c, err, "Failed to reorder categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listProducts(c *gin.Context) {
	offset, limit := pagination(c)

	filter := store.ProductFilter{
		Search:     c.Query("search"),
		Language:   c.DefaultQuery("lang", "en"),
		Brand:      c.Query("brand"),
		ActiveOnly: c.DefaultQuery("active", "true") != "false",
		Offset:     offset,
		Limit:      limit,
	}
	filter.CategoryID, _ = strconv.ParseInt(c.Query("category_id"), 10, 64)
	filter.MinPrice, _ = strconv.ParseInt(c.Query("min_price"), 10, 64)
	filter.MaxPrice, _ = strconv.ParseInt(c.Query("max_price"), 10, 64)

	products, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err, "Failed to list products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) getProductBySlug(c *gin.Context) {
	product, err := h.catalogService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondErr(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.catalogService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.catalogService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondErr(c, err, "Failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listVariants(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	variants, err := h.catalogService.ListVariants(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "Failed to list variants")
		return
	}
	c.JSON(http.StatusOK, variants)
}

func (h *Handler) createVariant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	variant, err := h.catalogService.CreateVariant(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err, "Failed to create variant")
		return
	}
	c.JSON(http.StatusCreated, variant)
}

func (h *Handler) updateVariant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.VariantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	variant, err := h.catalogService.UpdateVariant(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err, "Failed to update variant")
		return
	}
	c.JSON(http.StatusOK, variant)
}

func (h *Handler) deleteVariant(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteVariant(c.Request.Context(), id); err != nil {
		respondErr(c, err, "Failed to delete variant")
		return
	}
	c.Status(http.StatusNoContent)
}
