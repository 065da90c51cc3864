package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mpc180222/messagely/internal/common"
	"github.com/mpc180222/messagely/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
}

type sendMessageRequest struct {
	FromUsername string `json:"from_username"`
	ToUsername   string `json:"to_username" binding:"required"`
	Body         string `json:"body" binding:"required"`
}

// POST /login
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	token, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Logged in", "username", req.Username)
	c.JSON(http.StatusOK, gin.H{"message": "Logged in", "token": token})
}

// POST /register
func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	user, token, err := s.users.Register(c.Request.Context(), services.RegisterParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	s.logger.Info(c.Request.Context(), "Registered", "username", user.Username)
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// GET /users
func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GET /users/:username
func (s *Server) getUser(c *gin.Context) {
	username := c.Param("username")
	if principal(c) != username {
		writeError(c, common.ErrorForbidden)
		return
	}

	user, err := s.users.GetPublic(c.Request.Context(), username)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GET /users/:username/from
func (s *Server) userMessagesFrom(c *gin.Context) {
	list, err := s.messages.ListFrom(c.Request.Context(), principal(c), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// GET /users/:username/to
func (s *Server) userMessagesTo(c *gin.Context) {
	list, err := s.messages.ListTo(c.Request.Context(), principal(c), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// GET /messages/:id
func (s *Server) getMessage(c *gin.Context) {
	msg, err := s.messages.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// POST /messages
func (s *Server) postMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return
	}

	msg, err := s.messages.Send(c.Request.Context(), principal(c), req.FromUsername, req.ToUsername, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// POST /messages/:id/read
func (s *Server) markMessageRead(c *gin.Context) {
	receipt, err := s.messages.MarkRead(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": receipt})
}
