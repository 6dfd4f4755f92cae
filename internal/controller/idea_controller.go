package controller

import (
	"context"

	"idealab-be/internal/dto"
	"idealab-be/internal/pkg/serverutils"
	"idealab-be/internal/service"
	"idealab-be/pkg/workflow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IIdeaController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Submit(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Mine(ctx *fiber.Ctx) error
	Queue(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	AvailableActions(ctx *fiber.Ctx) error
	ApplyAction(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	VerifyHistory(ctx *fiber.Ctx) error
	Comments(ctx *fiber.Ctx) error
	AddComment(ctx *fiber.Ctx) error
}

type ideaController struct {
	service service.IIdeaService
}

func NewIdeaController(service service.IIdeaService) IIdeaController {
	return &ideaController{service: service}
}

func (c *ideaController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/idea/v1")
	h.Use(auth)
	h.Post("", c.Submit)
	h.Get("", c.List)
	h.Get("mine", c.Mine)
	h.Get("queue", c.Queue)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Get(":id/actions", c.AvailableActions)
	h.Post(":id/actions", c.ApplyAction)
	h.Get(":id/history", c.History)
	h.Get(":id/history/verify", c.VerifyHistory)
	h.Get(":id/comments", c.Comments)
	h.Post(":id/comments", c.AddComment)
}

func (c *ideaController) Submit(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var req dto.SubmitIdeaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return workflow.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success submit idea", res))
}

func (c *ideaController) List(ctx *fiber.Ctx) error {
	return c.list(ctx, c.service.List, "Success get ideas")
}

func (c *ideaController) Mine(ctx *fiber.Ctx) error {
	return c.list(ctx, c.service.Mine, "Success get my ideas")
}

func (c *ideaController) Queue(ctx *fiber.Ctx) error {
	return c.list(ctx, c.service.Queue, "Success get review queue")
}

func (c *ideaController) Show(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show idea", res))
}

func (c *ideaController) Update(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateIdeaRequest
	if err := ctx.BodyParser(&req); err != nil {
		return workflow.Validation("invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update idea", res))
}

func (c *ideaController) AvailableActions(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.AvailableActions(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get available actions", res))
}

func (c *ideaController) ApplyAction(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	var req dto.ApplyActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return workflow.Validation("invalid request body")
	}
	req.IdeaId = id
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = ctx.Get("Idempotency-Key")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ApplyAction(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success apply action", res))
}

func (c *ideaController) History(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.History(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get idea history", res))
}

func (c *ideaController) VerifyHistory(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.VerifyHistory(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success verify idea history", res))
}

func (c *ideaController) Comments(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Comments(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get comments", res))
}

func (c *ideaController) AddComment(ctx *fiber.Ctx) error {
	userId, id, err := userAndIdea(ctx)
	if err != nil {
		return err
	}

	var req dto.AddCommentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return workflow.Validation("invalid request body")
	}
	req.IdeaId = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddComment(ctx.UserContext(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success add comment", res))
}

type listFunc func(ctx context.Context, userId uuid.UUID, query *dto.ListIdeasQuery) (*dto.IdeaListResponse, error)

func (c *ideaController) list(ctx *fiber.Ctx, fetch listFunc, message string) error {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return err
	}

	var query dto.ListIdeasQuery
	if err := ctx.QueryParser(&query); err != nil {
		return workflow.Validation("invalid query parameters")
	}
	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := fetch(ctx.UserContext(), userId, &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func userAndIdea(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := serverutils.UserID(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	id, err := serverutils.ParamUUID(ctx, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userId, id, nil
}
