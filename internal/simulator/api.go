package simulator

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/ranchkit/errors"
	"github.com/kbukum/ranchkit/server"
	"github.com/kbukum/ranchkit/session"
)

const identityKey = "identity"

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token string           `json:"token"`
	User  session.Identity `json:"user"`
}

func (s *Simulator) routes(r *gin.Engine) {
	r.POST("/api/auth/login", s.login)

	api := r.Group("/api/ranches", s.requireAuth)
	api.GET("", s.listRanches)
	api.POST("", s.createRanch)
	api.GET("/:id", s.getRanch)
	api.PUT("/:id", s.replaceRanch)
	api.PATCH("/:id", s.patchRanch)
	api.DELETE("/:id", s.deleteRanch)
}

// login accepts any non-empty credentials. The user ID is derived from the
// email so repeated logins map to the same user.
func (s *Simulator) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("invalid login body"))
		return
	}
	if req.Email == "" {
		server.RespondWithError(c, apperrors.MissingField("email"))
		return
	}
	if req.Password == "" {
		server.RespondWithError(c, apperrors.MissingField("password"))
		return
	}
	name := req.Name
	if name == "" {
		name = strings.SplitN(req.Email, "@", 2)[0]
	}
	id := session.Identity{
		UserID:   uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+req.Email)).String(),
		Name:     name,
		Email:    req.Email,
		Role:     "rancher",
		RanchIDs: s.ranches.ids(),
	}
	token, err := session.Issue(s.cfg.JWTSecret, id, s.cfg.TokenTTL)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if s.cfg.TokenTTL > 0 {
		id.ExpiresAt = s.now().Add(s.cfg.TokenTTL)
	}
	server.RespondOK(c, LoginResponse{Token: token, User: id})
}

func (s *Simulator) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		server.RespondWithError(c, apperrors.Unauthorized(""))
		c.Abort()
		return
	}
	id, err := session.Verify(s.cfg.JWTSecret, token)
	if err != nil {
		server.RespondWithError(c, err)
		c.Abort()
		return
	}
	c.Set(identityKey, id)
	c.Next()
}

func (s *Simulator) listRanches(c *gin.Context) {
	server.RespondOK(c, s.ranches.list())
}

func (s *Simulator) getRanch(c *gin.Context) {
	r, err := s.ranches.get(c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, r)
}

func (s *Simulator) createRanch(c *gin.Context) {
	in, ok := bindRanch(c)
	if !ok {
		return
	}
	r, err := s.ranches.create(in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if id, ok := c.Get(identityKey); ok {
		_ = s.Publish("user_"+id.(session.Identity).UserID, "SYSTEM_MESSAGE", map[string]any{
			"title":   "Ranch created",
			"message": r.Name + " was added",
			"level":   "success",
		})
	}
	server.RespondCreated(c, r)
}

func (s *Simulator) replaceRanch(c *gin.Context) {
	in, ok := bindRanch(c)
	if !ok {
		return
	}
	r, err := s.ranches.replace(c.Param("id"), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, r)
}

func (s *Simulator) patchRanch(c *gin.Context) {
	in, ok := bindRanch(c)
	if !ok {
		return
	}
	r, err := s.ranches.patch(c.Param("id"), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, r)
}

func (s *Simulator) deleteRanch(c *gin.Context) {
	if err := s.ranches.delete(c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

func bindRanch(c *gin.Context) (RanchInput, bool) {
	var in RanchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		server.RespondWithError(c, apperrors.Validation("invalid ranch body"))
		return RanchInput{}, false
	}
	return in, true
}
