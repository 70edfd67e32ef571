package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bus_backoffice/internal/models"
	"bus_backoffice/internal/services"
)

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

func (h *Handler) SignupUser(c *gin.Context) {
	var input signupInput
	if !bindJSON(c, "SignupUser", &input) {
		return
	}

	user, err := h.svc.Users.Signup(c.Request.Context(), services.SignupInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Phone:    input.Phone,
	})
	if err != nil {
		respondError(c, "SignupUser", err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

func (h *Handler) LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, "LoginUser", &body) {
		return
	}

	user, err := h.svc.Users.Authenticate(c.Request.Context(), body.Email, body.Password)
	if errors.Is(err, services.ErrBadCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, "LoginUser", err)
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

func (h *Handler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.auth.GenerateToken(user.ID, user.Role)
	if err != nil {
		logrus.WithError(err).Error("auth: could not generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	c.JSON(status, gin.H{
		"token": token,
		"user":  prepareUserResponse(*user),
	})
}

func prepareUserResponse(user models.User) gin.H {
	return gin.H{
		"ID":        user.ID,
		"CreatedAt": user.CreatedAt,
		"UpdatedAt": user.UpdatedAt,
		"name":      user.Name,
		"email":     user.Email,
		"phone":     user.Phone,
		"role":      user.Role,
	}
}
