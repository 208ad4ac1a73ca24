package api

import (
	"net/http"

	"shop-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// signUp registers a customer account
func (h *Handler) signUp(c *gin.Context) {
	var req service.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err, "Failed to register")
		return
	}
	c.JSON(http.StatusCreated, result)
}

// signIn authenticates a customer
func (h *Handler) signIn(c *gin.Context) {
	var req service.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err, "Invalid credentials")
		return
	}
	c.JSON(http.StatusOK, result)
}

// adminSignIn authenticates an admin with per-address throttling
func (h *Handler) adminSignIn(c *gin.Context) {
	var req service.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.authService.AdminSignIn(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondErr(c, err, "Invalid credentials")
		return
	}
	c.JSON(http.StatusOK, result)
}

// forgotPassword issues a reset token. The response is identical whether or
// not the account exists.
func (h *Handler) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondErr(c, err, "Failed to process request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link was sent"})
}

// resetPassword consumes a reset token
func (h *Handler) resetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondErr(c, err, "Failed to reset password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// refreshToken reissues a token for the authenticated account
func (h *Handler) refreshToken(c *gin.Context) {
	result, err := h.authService.Refresh(c.Request.Context(), authedEmail(c))
	if err != nil {
		respondErr(c, err, "Failed to refresh token")
		return
	}
	c.JSON(http.StatusOK, result)
}

// signOut acknowledges a sign-out. Tokens are stateless, so the client
// discards its copy and the short TTL bounds any remaining validity.
func (h *Handler) signOut(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// profile returns the authenticated account
func (h *Handler) profile(c *gin.Context) {
	user, err := h.authService.Profile(c.Request.Context(), authedEmail(c))
	if err != nil {
		respondErr(c, err, "Account not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// updateAddress updates the authenticated account's billing details
func (h *Handler) updateAddress(c *gin.Context) {
	var req service.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.authService.UpdateAddress(c.Request.Context(), authedEmail(c), &req)
	if err != nil {
		respondErr(c, err, "Failed to update address")
		return
	}
	c.JSON(http.StatusOK, user)
}

// listUsers lists accounts for the admin dashboard
func (h *Handler) listUsers(c *gin.Context) {
	offset, limit := pagination(c)
	activeOnly := c.Query("active") == "true"

	users, err := h.authService.ListUsers(c.Request.Context(), activeOnly, offset, limit)
	if err != nil {
		respondErr(c, err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// getUser fetches one account by ID
func (h *Handler) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.authService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// createUser registers an account from the admin panel
func (h *Handler) createUser(c *gin.Context) {
	var req service.AdminUserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.authService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err, "Failed to create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// updateUser edits an account's profile fields
func (h *Handler) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AdminUserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.authService.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		respondErr(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// deleteUser removes an account
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.authService.DeleteUser(c.Request.Context(), id); err != nil {
		respondErr(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) userID(c *gin.Context) (int64, bool) {
	user, err := h.authService.Profile(c.Request.Context(), authedEmail(c))
	if err != nil {
		respondErr(c, err, "Account not found")
		return 0, false
	}
	return user.ID, true
}

// listFavorites lists the authenticated user's favorites
func (h *Handler) listFavorites(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	favorites, err := h.favoriteService.List(c.Request.Context(), userID, offset, limit)
	if err != nil {
		respondErr(c, err, "Failed to list favorites")
		return
	}
	c.JSON(http.StatusOK, favorites)
}

// addFavorite marks a product as a favorite
func (h *Handler) addFavorite(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	favorite, err := h.favoriteService.Add(c.Request.Context(), userID, productID)
	if err != nil {
		respondErr(c, err, "Failed to add favorite")
		return
	}
	c.JSON(http.StatusCreated, favorite)
}

// removeFavorite unmarks a product
func (h *Handler) removeFavorite(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	if err := h.favoriteService.Remove(c.Request.Context(), userID, productID); err != nil {
		respondErr(c, err, "Failed to remove favorite")
		return
	}
	c.Status(http.StatusNoContent)
}

// checkFavorite reports whether the product is favorited
func (h *Handler) checkFavorite(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product_id")
	if !ok {
		return
	}

	isFavorite, err := h.favoriteService.Check(c.Request.Context(), userID, productID)
	if err != nil {
		respondErr(c, err, "Failed to check favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_favorite": isFavorite})
}

// submitMessage stores a contact-form submission
func (h *Handler) submitMessage(c *gin.Context) {
	var req service.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	message, err := h.messageService.Submit(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err, "Failed to submit message")
		return
	}
	c.JSON(http.StatusCreated, message)
}

// listMessages lists contact messages for admins
func (h *Handler) listMessages(c *gin.Context) {
	offset, limit := pagination(c)

	messages, err := h.messageService.List(c.Request.Context(), c.Query("status"), offset, limit)
	if err != nil {
		respondErr(c, err, "Failed to list messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

// getMessage fetches one contact message
func (h *Handler) getMessage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	message, err := h.messageService.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err, "Message not found")
		return
	}
	c.JSON(http.StatusOK, message)
}

// updateMessageStatus moves a message through its states
func (h *Handler) updateMessageStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.messageService.SetStatus(c.Request.Context(), id, req.Status); err != nil {
		respondErr(c, err, "Failed to update message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}
