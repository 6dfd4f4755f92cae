package controller

import (
	"idealab-be/internal/pkg/serverutils"
	"idealab-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRoleController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
}

type roleController struct {
	service service.IRoleService
}

func NewRoleController(service service.IRoleService) IRoleController {
	return &roleController{service: service}
}

func (c *roleController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/roles/v1")
	h.Use(auth)
	h.Get("", c.List)
}

func (c *roleController) List(ctx *fiber.Ctx) error {
	res, err := c.service.List(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get roles", res))
}
