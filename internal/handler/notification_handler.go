package handler

import (
	"idealab-be/internal/model"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/pkg/serverutils"
	"idealab-be/internal/service"
	internalWS "idealab-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	handlerModule    = "NotificationHandler"
	maxNotifications = 100
)

type NotificationHandler struct {
	service   *service.NotificationService
	hub       *internalWS.Hub
	jwtSecret string
	logger    logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, hub *internalWS.Hub, jwtSecret string, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    log,
	}
}

// ServeWs authenticates the handshake itself since browsers cannot set headers
// on a websocket upgrade; the token may come from ?token=.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.BearerToken(c)
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')"))
	}

	userID, err := serverutils.ParseUserID(tokenStr, h.jwtSecret)
	if err != nil {
		h.logger.Warn(handlerModule, "Invalid Token in WS Handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(handlerModule, "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info(handlerModule, "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > maxNotifications {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	notifications, total, err := h.service.GetNotifications(c.UserContext(), userID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Success get notifications", serverutils.PagedData[model.Notification]{
		Items:  notifications,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}))
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	count, err := h.service.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Success get unread count", fiber.Map{"count": count}))
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}
	id, err := serverutils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.MarkAsRead(c.UserContext(), userID, id); err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse[any]("Success mark notification read", nil))
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkAllAsRead(c.UserContext(), userID); err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse[any]("Success mark all notifications read", nil))
}

func (h *NotificationHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	notif := router.Group("/notifications")
	notif.Use(auth)
	notif.Get("/", h.GetNotifications)
	notif.Get("/unread-count", h.GetUnreadCount)
	notif.Patch("/read-all", h.MarkAllAsRead)
	notif.Patch("/:id/read", h.MarkAsRead)

	router.Get("/ws", h.ServeWs)
}
