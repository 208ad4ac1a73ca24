package api

import (
	"net/http"

	"shop-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// createOrder handles order creation
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, items, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order": order,
		"items": items,
	})
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	order, items, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err, "Order not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// getOrderByNumber handles order lookup by its human-readable number
func (h *Handler) getOrderByNumber(c *gin.Context) {
	order, items, err := h.orderService.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondErr(c, err, "Order not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order": order,
		"items": items,
	})
}

// getOrderBySession handles order lookup by checkout session, used by the
// post-payment landing page.
func (h *Handler) getOrderBySession(c *gin.Context) {
	order, err := h.orderService.GetOrderBySessionID(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		respondErr(c, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, order)
}

// myOrders lists the authenticated customer's orders
func (h *Handler) myOrders(c *gin.Context) {
	offset, limit := pagination(c)

	orders, err := h.orderService.ListOrdersByEmail(c.Request.Context(), authedEmail(c), offset, limit)
	if err != nil {
		respondErr(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// listOrders handles the admin order listing
func (h *Handler) listOrders(c *gin.Context) {
	offset, limit := pagination(c)

	orders, err := h.orderService.ListOrders(c.Request.Context(), offset, limit)
	if err != nil {
		respondErr(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// updateOrder handles an admin order edit
func (h *Handler) updateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondErr(c, err, "Failed to update order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// dashboard reports aggregate stats for the admin dashboard
func (h *Handler) dashboard(c *gin.Context) {
	stats, err := h.orderService.DashboardStats(c.Request.Context())
	if err != nil {
		respondErr(c, err, "Failed to compute dashboard stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
