package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const welcomeMessage = "Welcome to projectgate"

// Router builds the gin engine with all routes wired.
func (s *HTTPServer) Router() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), s.accessLog(), s.recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": welcomeMessage})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/signup", s.signup)
	r.POST("/register", s.signup)
	r.POST("/login", s.login)

	authed := r.Group("/", s.authRequired())
	{
		authed.POST("/logout", s.logout)
		authed.GET("/protected", s.protected)
		authed.GET("/projects", s.listProjects)

		admin := authed.Group("/", s.adminOnly())
		admin.POST("/projects", s.createProject)
		admin.PUT("/projects/:id", s.updateProject)
		admin.DELETE("/projects/:id", s.deleteProject)
		admin.PUT("/users/:username/role", s.setRole)
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, codeNotFound, "route not found")
	})

	return r
}
