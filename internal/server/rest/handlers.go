package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/projectgate/internal/server/auth"
	"github.com/dmitrijs2005/projectgate/internal/server/models"
	"github.com/dmitrijs2005/projectgate/internal/server/services"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toTokenResponse(t *services.IssuedToken) tokenResponse {
	return tokenResponse{AccessToken: t.AccessToken, TokenType: t.TokenType}
}

// signup serves /signup and /register. A "role" field in the body is
// accepted and ignored: new accounts always get the user role.
func (s *HTTPServer) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "username and password are required")
		return
	}

	tok, err := s.users.Signup(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenResponse(tok))
}

// login accepts a JSON body or an HTML form, as OAuth2 password-flow
// clients send.
func (s *HTTPServer) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "username and password are required")
		return
	}

	tok, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenResponse(tok))
}

func (s *HTTPServer) logout(c *gin.Context) {
	if err := s.users.Logout(c.Request.Context(), c.GetString(ctxTokenKey)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) protected(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("Hello, %s", u.UserName),
		"role":     u.Role,
		"is_admin": auth.IsAdmin(u),
	})
}

func (s *HTTPServer) listProjects(c *gin.Context) {
	list, err := s.projects.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func bindProject(c *gin.Context) (models.ProjectInput, bool) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid json")
		return models.ProjectInput{}, false
	}
	return models.ProjectInput{Name: req.Name, Description: req.Description}, true
}

func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, codeValidation, "invalid project id")
		return 0, false
	}
	return id, true
}

func (s *HTTPServer) createProject(c *gin.Context) {
	in, ok := bindProject(c)
	if !ok {
		return
	}

	p, err := s.projects.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *HTTPServer) updateProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}
	in, ok := bindProject(c)
	if !ok {
		return
	}

	p, err := s.projects.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *HTTPServer) deleteProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	if err := s.projects.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) setRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, "role is required")
		return
	}

	u, err := s.users.SetRole(c.Request.Context(), currentUser(c), c.Param("username"), req.Role)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userResponse{ID: u.ID, Username: u.UserName, Role: u.Role})
}
