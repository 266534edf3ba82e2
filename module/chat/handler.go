package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"

	secmw "baatcheet/middleware/security"
	chatmodel "baatcheet/module/chat/model"
	chatsvc "baatcheet/module/chat/service"
	chatsrv "baatcheet/service/chat"
	"baatcheet/service/media"
	"baatcheet/service/mgo"
	"baatcheet/tools/errs"
	"baatcheet/tools/security"
)

// Handler serves /api/messages. Sends go through the relay strictly after
// the persistence write returns.
type Handler struct {
	opts  security.Options
	relay *chatsrv.Relay
	media *media.Store
}

func NewHandler(opts security.Options, relay *chatsrv.Relay, media *media.Store) *Handler {
	return &Handler{opts: opts, relay: relay, media: media}
}

func (h *Handler) RegisterRoutes(g *gin.RouterGroup) {
	authed := g.Group("", secmw.Middleware(h.opts))
	authed.GET("/user", h.Contacts)
	authed.GET("/:id", h.History)
	authed.POST("/send/:id", h.Send)
}

func (h *Handler) Contacts(c *gin.Context) {
	users, err := chatsvc.Contacts(c.Request.Context(), mgo.GetDB(), secmw.UserID(c))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) History(c *gin.Context) {
	msgs, err := chatsvc.History(c.Request.Context(), mgo.GetDB(), secmw.UserID(c), c.Param("id"))
	if err != nil {
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendReq struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (h *Handler) Send(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}
	if req.Text == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, errs.ErrMessageEmpty)
		return
	}

	imageURL := ""
	if req.Image != "" {
		url, err := h.media.SaveDataURI(req.Image)
		if err != nil {
			c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
			return
		}
		imageURL = url
	}

	msg := &chatmodel.Message{
		SenderID:   secmw.UserID(c),
		ReceiverID: c.Param("id"),
		Text:       req.Text,
		Image:      imageURL,
	}
	msg, err := chatsvc.Insert(c.Request.Context(), mgo.GetDB(), msg)
	if err != nil {
		// No push on a failed write.
		c.JSON(errs.HTTPStatus(err), errs.AsCodeError(err))
		return
	}

	// The insert has returned, so the pushed copy is already durable.
	h.relay.Deliver(msg)

	c.JSON(http.StatusOK, gin.H{"message": msg})
}
