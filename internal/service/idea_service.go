package service

import (
	"context"
	"strings"
	"time"

	"idealab-be/internal/dto"
	"idealab-be/internal/entity"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/repository/specification"
	"idealab-be/internal/repository/unitofwork"
	"idealab-be/pkg/events"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
)

const (
	ideaModule       = "IDEA"
	defaultPageLimit = 20
	submitComment    = "Idea submitted"
)

type IIdeaService interface {
	Submit(ctx context.Context, userId uuid.UUID, req *dto.SubmitIdeaRequest) (*dto.IdeaResponse, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateIdeaRequest) (*dto.IdeaResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowIdeaResponse, error)
	List(ctx context.Context, userId uuid.UUID, query *dto.ListIdeasQuery) (*dto.IdeaListResponse, error)
	Mine(ctx context.Context, userId uuid.UUID, query *dto.ListIdeasQuery) (*dto.IdeaListResponse, error)
	Queue(ctx context.Context, userId uuid.UUID, query *dto.ListIdeasQuery) (*dto.IdeaListResponse, error)
	AvailableActions(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AvailableActionsResponse, error)
	ApplyAction(ctx context.Context, userId uuid.UUID, req *dto.ApplyActionRequest) (*dto.TransitionResponse, error)
	History(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.StatusUpdateResponse, error)
	VerifyHistory(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.HistoryVerificationResponse, error)
	Comments(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.CommentResponse, error)
	AddComment(ctx context.Context, userId uuid.UUID, req *dto.AddCommentRequest) (*dto.CommentResponse, error)
}

type ideaService struct {
	uowFactory  unitofwork.RepositoryFactory
	engine      *workflow.Engine
	roleService IRoleService
	logger      logger.ILogger
}

func NewIdeaService(
	uowFactory unitofwork.RepositoryFactory,
	engine *workflow.Engine,
	roleService IRoleService,
	logger logger.ILogger,
) IIdeaService {
	return &ideaService{
		uowFactory:  uowFactory,
		engine:      engine,
		roleService: roleService,
		logger:      logger,
	}
}

func (s *ideaService) Submit(ctx context.Context, userId uuid.UUID, req *dto.SubmitIdeaRequest) (*dto.IdeaResponse, error) {
	if _, ok, err := s.roleService.ResolveRole(ctx, userId); err != nil {
		return nil, workflow.Persistence("failed to resolve role", err)
	} else if !ok {
		return nil, workflow.Unauthorized("user %s has no role", userId)
	}

	fields, err := normalizeIdeaFields(req.Title, req.Description, req.Category, req.Tags)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	idea := entity.Idea{
		Id:               uuid.New(),
		Title:            fields.title,
		Description:      fields.description,
		ProblemStatement: strings.TrimSpace(req.ProblemStatement),
		TargetAudience:   strings.TrimSpace(req.TargetAudience),
		Category:         fields.category,
		Tags:             fields.tags,
		DocumentURL:      trimOptional(req.DocumentURL),
		Stage:            entity.StageDiscovery,
		SubmittedBy:      userId,
		CreatedAt:        now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, workflow.Persistence("failed to begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.IdeaRepository().Create(ctx, &idea); err != nil {
		return nil, workflow.Persistence("failed to create idea", err)
	}

	creation := entity.StatusUpdate{
		Id:        uuid.New(),
		IdeaId:    idea.Id,
		Sequence:  1,
		NewStage:  entity.StageDiscovery,
		Action:    entity.ActionSubmit,
		Comment:   submitComment,
		UpdatedBy: userId,
		CreatedAt: now,
	}
	if err := uow.StatusUpdateRepository().Create(ctx, &creation); err != nil {
		return nil, workflow.Persistence("failed to record submission", err)
	}

	evt := events.IdeaSubmitted(idea.Id, idea.Title, userId, now)
	if err := uow.OutboxRepository().Enqueue(ctx, &entity.OutboxEvent{
		Id:          uuid.New(),
		EventType:   evt.EventType(),
		AggregateId: idea.Id,
		Payload:     evt.Payload(),
		Status:      entity.OutboxStatusPending,
		CreatedAt:   now,
	}); err != nil {
		return nil, workflow.Persistence("failed to enqueue submission event", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, workflow.Persistence("failed to commit submission", err)
	}

	s.logger.Info(ideaModule, "Idea submitted", map[string]interface{}{
		"ideaId": idea.Id.String(),
		"userId": userId.String(),
	})
	return toIdeaResponse(&idea), nil
}

// Update lets the owner revise an idea while it is still in discovery. The stage
// itself only ever changes through the workflow engine.
func (s *ideaService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateIdeaRequest) (*dto.IdeaResponse, error) {
	fields, err := normalizeIdeaFields(req.Title, req.Description, req.Category, req.Tags)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, workflow.Persistence("failed to begin transaction", err)
	}
	defer uow.Rollback()

	idea, err := uow.IdeaRepository().FindForUpdate(ctx, req.Id)
	if err != nil {
		return nil, workflow.Persistence("failed to load idea", err)
	}
	if idea == nil {
		return nil, workflow.NotFound("idea %s not found", req.Id)
	}
	if idea.SubmittedBy != userId {
		return nil, workflow.Forbidden("only the submitter can edit this idea")
	}
	if idea.Stage != entity.StageDiscovery {
		return nil, workflow.Conflict("idea is in %q and can no longer be edited", idea.Stage)
	}

	now := time.Now()
	idea.Title = fields.title
	idea.Description = fields.description
	idea.ProblemStatement = strings.TrimSpace(req.ProblemStatement)
	idea.TargetAudience = strings.TrimSpace(req.TargetAudience)
	idea.Category = fields.category
	idea.Tags = fields.tags
	idea.DocumentURL = trimOptional(req.DocumentURL)
	idea.UpdatedAt = &now

	if err := uow.IdeaRepository().Update(ctx, idea); err != nil {
		return nil, workflow.Persistence("failed to update idea", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, workflow.Persistence("failed to commit idea update", err)
	}

	return toIdeaResponse(idea), nil
}

func (s *ideaService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.ShowIdeaResponse, error) {
	idea, err := s.findIdea(ctx, id)
	if err != nil {
		return nil, err
	}

	actions, _, err := s.actionsFor(ctx, userId, idea)
	if err != nil {
		return nil, err
	}

	return &dto.ShowIdeaResponse{
		IdeaResponse:     *toIdeaResponse(idea),
		AvailableActions: actions,
		CanEdit:          idea.SubmittedBy == userId && idea.Stage == entity.StageDiscovery,
	}, nil
}

func (s *ideaService) List(ctx context.Context, userId uuid.UUID, query *dto.ListIdeasQuery) (*dto.IdeaListResponse, error) {
	return s.page(ctx, query)
}

func (s *ideaService) Mine(ctx context.Context, userId uuid.UUID, query *dto.ListIdeasQuery) (*dto.IdeaListResponse, error) {
	return s.page(ctx, query, specification.SubmittedBy{UserID: userId})
}

// Queue lists the ideas waiting on the caller's role. Terminal stages are left
// out since nothing can be done with them.
func (s *ideaService) Queue(ctx context.Context, userId uuid.UUID, query *dto.ListIdeasQuery) (*dto.IdeaListResponse, error) {
	role, ok, err := s.roleService.ResolveRole(ctx, userId)
	if err != nil {
		return nil, workflow.Persistence("failed to resolve role", err)
	}
	if !ok {
		return nil, workflow.Unauthorized("user %s has no role", userId)
	}

	stages := make([]entity.Stage, 0)
	for _, st := range s.engine.Policy().ManageableStages(role) {
		if !st.IsTerminal() {
			stages = append(stages, st)
		}
	}
	return s.page(ctx, query, specification.InStages{Stages: stages})
}

func (s *ideaService) AvailableActions(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AvailableActionsResponse, error) {
	idea, err := s.findIdea(ctx, id)
	if err != nil {
		return nil, err
	}

	actions, role, err := s.actionsFor(ctx, userId, idea)
	if err != nil {
		return nil, err
	}

	return &dto.AvailableActionsResponse{
		IdeaId:  idea.Id,
		Stage:   string(idea.Stage),
		Role:    string(role),
		Actions: actions,
	}, nil
}

func (s *ideaService) ApplyAction(ctx context.Context, userId uuid.UUID, req *dto.ApplyActionRequest) (*dto.TransitionResponse, error) {
	action, ok := entity.ParseAction(req.Action)
	if !ok {
		return nil, workflow.Validation("unknown action %q", req.Action)
	}

	var expected *entity.Stage
	if strings.TrimSpace(req.ExpectedStage) != "" {
		st, ok := entity.ParseStage(req.ExpectedStage)
		if !ok {
			return nil, workflow.Validation("unknown stage %q", req.ExpectedStage)
		}
		expected = &st
	}

	rec, err := s.engine.Apply(ctx, workflow.ActionRequest{
		IdeaID:         req.IdeaId,
		ActorID:        userId,
		Action:         action,
		Comment:        req.Comment,
		ExpectedStage:  expected,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	return &dto.TransitionResponse{
		Idea:          toIdeaResponse(rec.Idea),
		PreviousStage: string(rec.PreviousStage),
		StatusUpdate:  toStatusUpdateResponse(rec.StatusUpdate),
		ActorRole:     string(rec.ActorRole),
		NextActions:   actionNames(s.engine.AvailableActions(rec.ActorRole, rec.Idea.Stage)),
	}, nil
}

func (s *ideaService) History(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.StatusUpdateResponse, error) {
	if _, err := s.findIdea(ctx, id); err != nil {
		return nil, err
	}

	updates, err := s.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.StatusUpdateResponse, len(updates))
	for i, u := range updates {
		res[i] = toStatusUpdateResponse(u)
	}
	return res, nil
}

func (s *ideaService) VerifyHistory(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.HistoryVerificationResponse, error) {
	idea, err := s.findIdea(ctx, id)
	if err != nil {
		return nil, err
	}

	updates, err := s.loadHistory(ctx, id)
	if err != nil {
		return nil, err
	}

	report, err := workflow.VerifyHistory(s.engine.Table(), idea.Stage, updates)
	if err != nil {
		return nil, workflow.Persistence("failed to replay history", err)
	}
	if !report.Consistent {
		s.logger.Warn(ideaModule, "Idea history is inconsistent", map[string]interface{}{
			"ideaId":   idea.Id.String(),
			"problems": report.Problems,
		})
	}

	return &dto.HistoryVerificationResponse{
		IdeaId:       idea.Id,
		Consistent:   report.Consistent,
		Steps:        report.Steps,
		FinalStage:   string(report.FinalStage),
		CurrentStage: string(idea.Stage),
		Terminal:     report.Terminal,
		Problems:     report.Problems,
	}, nil
}

// Comments hides internal reviewer notes from callers who review nothing.
func (s *ideaService) Comments(ctx context.Context, userId uuid.UUID, id uuid.UUID) ([]*dto.CommentResponse, error) {
	if _, err := s.findIdea(ctx, id); err != nil {
		return nil, err
	}

	role, ok, err := s.roleService.ResolveRole(ctx, userId)
	if err != nil {
		return nil, workflow.Persistence("failed to resolve role", err)
	}

	specs := []specification.Specification{
		specification.ByIdeaID{IdeaID: id},
		specification.Chronological{},
	}
	if !ok || !s.roleService.IsReviewer(role) {
		specs = append(specs, specification.ExternalOnly{})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	comments, err := uow.CommentRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, workflow.Persistence("failed to load comments", err)
	}

	res := make([]*dto.CommentResponse, len(comments))
	for i, c := range comments {
		res[i] = toCommentResponse(c)
	}
	return res, nil
}

func (s *ideaService) AddComment(ctx context.Context, userId uuid.UUID, req *dto.AddCommentRequest) (*dto.CommentResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, workflow.Validation("comment is required")
	}
	if _, err := s.findIdea(ctx, req.IdeaId); err != nil {
		return nil, err
	}

	comment := entity.Comment{
		Id:        uuid.New(),
		IdeaId:    req.IdeaId,
		UserId:    userId,
		Content:   content,
		CreatedAt: time.Now(),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.CommentRepository().Create(ctx, &comment); err != nil {
		return nil, workflow.Persistence("failed to add comment", err)
	}
	return toCommentResponse(&comment), nil
}

func (s *ideaService) findIdea(ctx context.Context, id uuid.UUID) (*entity.Idea, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	idea, err := uow.IdeaRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, workflow.Persistence("failed to load idea", err)
	}
	if idea == nil {
		return nil, workflow.NotFound("idea %s not found", id)
	}
	return idea, nil
}

func (s *ideaService) loadHistory(ctx context.Context, id uuid.UUID) ([]*entity.StatusUpdate, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	updates, err := uow.StatusUpdateRepository().FindAll(ctx,
		specification.ByIdeaID{IdeaID: id},
		specification.Chronological{TieBreaker: "sequence"},
	)
	if err != nil {
		return nil, workflow.Persistence("failed to load history", err)
	}
	return updates, nil
}

// actionsFor returns no actions, not an error, for callers without a role.
func (s *ideaService) actionsFor(ctx context.Context, userId uuid.UUID, idea *entity.Idea) ([]string, entity.Role, error) {
	role, ok, err := s.roleService.ResolveRole(ctx, userId)
	if err != nil {
		return nil, "", workflow.Persistence("failed to resolve role", err)
	}
	if !ok {
		return []string{}, "", nil
	}
	return actionNames(s.engine.AvailableActions(role, idea.Stage)), role, nil
}

func (s *ideaService) page(ctx context.Context, query *dto.ListIdeasQuery, scope ...specification.Specification) (*dto.IdeaListResponse, error) {
	if query == nil {
		query = &dto.ListIdeasQuery{}
	}
	filters := append([]specification.Specification{}, scope...)

	if query.Stage != "" {
		st, ok := entity.ParseStage(query.Stage)
		if !ok {
			return nil, workflow.Validation("unknown stage %q", query.Stage)
		}
		filters = append(filters, specification.ByStage{Stage: st})
	}
	if query.Category != "" {
		cat := entity.Category(strings.ToLower(strings.TrimSpace(query.Category)))
		if !cat.IsValid() {
			return nil, workflow.Validation("unknown category %q", query.Category)
		}
		filters = append(filters, specification.ByCategory{Category: cat})
	}
	if q := strings.TrimSpace(query.Search); q != "" {
		filters = append(filters, specification.TitleContains{Query: q})
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.IdeaRepository().Count(ctx, filters...)
	if err != nil {
		return nil, workflow.Persistence("failed to count ideas", err)
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	ideas, err := uow.IdeaRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, workflow.Persistence("failed to list ideas", err)
	}

	items := make([]*dto.IdeaResponse, len(ideas))
	for i, idea := range ideas {
		items[i] = toIdeaResponse(idea)
	}
	return &dto.IdeaListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

type ideaFields struct {
	title       string
	description string
	category    entity.Category
	tags        []string
}

func normalizeIdeaFields(title, description, category string, tags []string) (*ideaFields, error) {
	f := &ideaFields{
		title:       strings.TrimSpace(title),
		description: strings.TrimSpace(description),
		category:    entity.Category(strings.ToLower(strings.TrimSpace(category))),
		tags:        make([]string, 0, len(tags)),
	}
	if f.title == "" {
		return nil, workflow.Validation("title is required")
	}
	if f.description == "" {
		return nil, workflow.Validation("description is required")
	}
	if !f.category.IsValid() {
		return nil, workflow.Validation("unknown category %q", category)
	}
	if len(tags) > entity.MaxIdeaTags {
		return nil, workflow.Validation("at most %d tags are allowed", entity.MaxIdeaTags)
	}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, workflow.Validation("tags must not be blank")
		}
		f.tags = append(f.tags, t)
	}
	return f, nil
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func actionNames(actions []entity.Action) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return names
}

func toIdeaResponse(idea *entity.Idea) *dto.IdeaResponse {
	tags := idea.Tags
	if tags == nil {
		tags = []string{}
	}
	return &dto.IdeaResponse{
		Id:               idea.Id,
		Title:            idea.Title,
		Description:      idea.Description,
		ProblemStatement: idea.ProblemStatement,
		TargetAudience:   idea.TargetAudience,
		Category:         string(idea.Category),
		Tags:             tags,
		DocumentURL:      idea.DocumentURL,
		Stage:            string(idea.Stage),
		SubmittedBy:      idea.SubmittedBy,
		CreatedAt:        idea.CreatedAt,
		UpdatedAt:        idea.UpdatedAt,
	}
}

func toStatusUpdateResponse(u *entity.StatusUpdate) *dto.StatusUpdateResponse {
	var previous *string
	if u.PreviousStage != nil {
		p := string(*u.PreviousStage)
		previous = &p
	}
	return &dto.StatusUpdateResponse{
		Id:            u.Id,
		Sequence:      u.Sequence,
		PreviousStage: previous,
		NewStage:      string(u.NewStage),
		Action:        string(u.Action),
		Comment:       u.Comment,
		UpdatedBy:     u.UpdatedBy,
		CreatedAt:     u.CreatedAt,
	}
}

func toCommentResponse(c *entity.Comment) *dto.CommentResponse {
	return &dto.CommentResponse{
		Id:         c.Id,
		UserId:     c.UserId,
		Content:    c.Content,
		IsInternal: c.IsInternal,
		CreatedAt:  c.CreatedAt,
	}
}
