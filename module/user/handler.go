package user

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	secmw "baatcheet/middleware/security"
	usersvc "baatcheet/module/user/service"
	"baatcheet/service/media"
	"baatcheet/service/mgo"
	"baatcheet/tools/errs"
	"baatcheet/tools/security"
)

// Handler serves /api/auth.
type Handler struct {
	opts  security.Options
	media *media.Store
}

func NewHandler(opts security.Options, media *media.Store) *Handler {
	return &Handler{opts: opts, media: media}
}

// RegisterRoutes wires the auth endpoints; signup/login are public, the
// rest sit behind the token middleware.
func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)

	authed := g.Group("", secmw.Middleware(h.opts))
	authed.POST("/logout", h.Logout)
	authed.GET("/check-auth", h.CheckAuth)
	authed.PUT("/update-profile", h.UpdateProfile)
}

func (h *Handler) Signup(c *gin.Context) {
	var p usersvc.SignupParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, err := usersvc.Signup(c.Request.Context(), mgo.GetDB(), p)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	u, token, exp, err := usersvc.Login(c.Request.Context(), mgo.GetDB(), h.opts, req.Email, req.Password)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	maxAge := int(time.Until(exp).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(secmw.CookieName, token, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *Handler) Logout(c *gin.Context) {
	usersvc.Logout(c.Request.Context(), secmw.Token(c))
	c.SetCookie(secmw.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) CheckAuth(c *gin.Context) {
	u, err := usersvc.GetByID(c.Request.Context(), mgo.GetDB(), secmw.UserID(c))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type updateProfileReq struct {
	ProfilePic string `json:"profilePic"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ProfilePic == "" {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("profilePic is required"))
		return
	}
	url, err := h.media.SaveDataURI(req.ProfilePic)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	u, err := usersvc.UpdateProfilePic(c.Request.Context(), mgo.GetDB(), secmw.UserID(c), url)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
