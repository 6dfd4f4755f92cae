package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"idealab-be/internal/entity"
	"idealab-be/internal/model"
	"idealab-be/internal/pkg/logger"
	"idealab-be/internal/repository/contract"
	"idealab-be/internal/repository/specification"
	"idealab-be/internal/repository/unitofwork"
	"idealab-be/pkg/events"
	"idealab-be/pkg/workflow"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	notificationModule  = "NotificationService"
	notificationDurable = "idealab-notification-worker"

	TargetOwner             = "OWNER"
	TargetStageApprovers    = "STAGE_APPROVERS"
	TargetOwnerAndApprovers = "OWNER_AND_APPROVERS"
	TargetRole              = "ROLE"

	ChannelWeb   = "web"
	ChannelEmail = "email"
)

// NotificationDelivery pushes a saved notification to a connected user.
// Implemented by the websocket hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
}

// StageMailer emails the idea owner about a stage change.
type StageMailer interface {
	SendStageChange(toEmail, fullName string, change StageChangeMail) error
}

type StageChangeMail struct {
	IdeaID        string
	Title         string
	PreviousStage string
	NewStage      string
	Comment       string
}

type NotificationService struct {
	uowFactory  unitofwork.RepositoryFactory
	roleService IRoleService
	policy      *workflow.RolePolicy
	subscriber  events.Subscriber
	delivery    NotificationDelivery
	mailer      StageMailer
	logger      logger.ILogger
}

func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	roleService IRoleService,
	policy *workflow.RolePolicy,
	sub events.Subscriber,
	delivery NotificationDelivery,
	mailer StageMailer,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		uowFactory:  uowFactory,
		roleService: roleService,
		policy:      policy,
		subscriber:  sub,
		delivery:    delivery,
		mailer:      mailer,
		logger:      log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() error {
	if err := s.subscriber.Subscribe("events.>", notificationDurable, s.HandleEvent); err != nil {
		s.logger.Error(notificationModule, "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info(notificationModule, "Notification service started, listening to events.>", nil)
	return nil
}

// HandleEvent turns one workflow event into stored notifications. A returned error
// asks the bus to redeliver.
func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	uow := s.uowFactory.NewUnitOfWork(ctx)

	config, err := uow.NotificationRepository().GetNotificationTypeByCode(ctx, typeCode)
	if err != nil {
		s.logger.Warn(notificationModule, fmt.Sprintf("Config not found for code: '%s'", typeCode), map[string]interface{}{"error": err.Error()})
		return nil
	}
	if !config.IsActive {
		s.logger.Info(notificationModule, fmt.Sprintf("Notification type '%s' is inactive", typeCode), nil)
		return nil
	}

	recipients, err := s.ResolveRecipients(ctx, config, event.Payload())
	if err != nil {
		s.logger.Error(notificationModule, fmt.Sprintf("Error resolving recipients for %s", typeCode), map[string]interface{}{"error": err})
		return err
	}
	s.logger.Info(notificationModule, "Recipients resolved", map[string]interface{}{"count": len(recipients), "type": config.TargetType})

	channels := parseChannels(config.Channels)
	ownerID := payloadUUID(event.Payload(), events.KeyUserID)

	for _, userID := range recipients {
		pref, err := uow.NotificationRepository().GetPreference(ctx, userID)
		if err != nil {
			s.logger.Warn(notificationModule, "Failed to load notification preference", map[string]interface{}{"userId": userID.String(), "error": err})
			pref = &model.UserNotificationPreference{UserID: userID, EmailEnabled: true}
		}
		if isMuted(pref, config.Code) {
			continue
		}

		notif := s.buildNotification(userID, config, event)
		if err := uow.NotificationRepository().CreateNotification(ctx, &notif); err != nil {
			s.logger.Error(notificationModule, fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err})
			continue
		}

		if s.delivery != nil {
			s.delivery.Send(userID, notif)
		}

		if channels[ChannelEmail] && pref.EmailEnabled && ownerID != nil && userID == *ownerID {
			s.emailOwner(ctx, userID, event.Payload())
		}
	}

	return nil
}

// ResolveRecipients returns the users a notification type targets. The actor
// never notifies themselves and nobody is listed twice.
func (s *NotificationService) ResolveRecipients(ctx context.Context, config *model.NotificationType, payload map[string]interface{}) ([]uuid.UUID, error) {
	candidates := make([]uuid.UUID, 0)

	includeOwner := config.TargetType == TargetOwner || config.TargetType == TargetOwnerAndApprovers
	includeApprovers := config.TargetType == TargetStageApprovers || config.TargetType == TargetOwnerAndApprovers

	if includeOwner {
		if owner := payloadUUID(payload, events.KeyUserID); owner != nil {
			candidates = append(candidates, *owner)
		} else {
			s.logger.Warn(notificationModule, fmt.Sprintf("TargetType %s but no user_id found in payload", config.TargetType), nil)
		}
	}

	if includeApprovers {
		stage, _ := payload[events.KeyNewStage].(string)
		roles := s.policy.RolesFor(entity.Stage(stage))
		ids, err := s.roleService.UsersWithRoles(ctx, roles)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, ids...)
	}

	if config.TargetType == TargetRole && config.TargetRole != "" {
		ids, err := s.roleService.UsersWithRoles(ctx, []entity.Role{entity.Role(config.TargetRole)})
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, ids...)
	}

	actor := payloadUUID(payload, events.KeyActorID)
	seen := make(map[uuid.UUID]struct{}, len(candidates))
	recipients := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if actor != nil && id == *actor {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		recipients = append(recipients, id)
	}
	return recipients, nil
}

func (s *NotificationService) emailOwner(ctx context.Context, userID uuid.UUID, payload map[string]interface{}) {
	if s.mailer == nil {
		return
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil || user == nil || user.Email == "" {
		s.logger.Warn(notificationModule, "Owner email not available", map[string]interface{}{"userId": userID.String()})
		return
	}

	change := StageChangeMail{}
	change.IdeaID, _ = payload[events.KeyIdeaID].(string)
	change.Title, _ = payload[events.KeyTitle].(string)
	change.PreviousStage, _ = payload[events.KeyPreviousStage].(string)
	change.NewStage, _ = payload[events.KeyNewStage].(string)
	change.Comment, _ = payload[events.KeyComment].(string)

	if err := s.mailer.SendStageChange(user.Email, user.FullName, change); err != nil {
		s.logger.Error(notificationModule, "Failed to email idea owner", map[string]interface{}{"userId": userID.String(), "error": err})
	}
}

func (s *NotificationService) buildNotification(userID uuid.UUID, config *model.NotificationType, event events.Event) model.Notification {
	msg := config.Template
	payload := event.Payload()

	for k, v := range payload {
		placeholder := fmt.Sprintf("{%s}", k)
		msg = strings.ReplaceAll(msg, placeholder, fmt.Sprintf("%v", v))
	}

	entityType, _ := payload[events.KeyEntityType].(string)
	entityID := payloadUUID(payload, events.KeyEntityID)

	metaMap := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		metaMap[k] = v
	}
	if entityType != "" && entityID != nil {
		metaMap["action_url"] = fmt.Sprintf("/%ss/%s", entityType, entityID.String())
	}
	metaJSON, _ := json.Marshal(metaMap)

	return model.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		ActorID:    payloadUUID(payload, events.KeyActorID),
		TypeCode:   config.Code,
		Title:      config.DisplayName,
		Message:    msg,
		Metadata:   datatypes.JSON(metaJSON),
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
		IsRead:     false,
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NotificationRepository().GetNotificationsByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NotificationRepository().GetUnreadCount(ctx, userID)
}

// MarkAsRead only marks a notification the user owns.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	err := uow.NotificationRepository().MarkAsRead(ctx, userID, id)
	if errors.Is(err, contract.ErrNotificationNotFound) {
		return workflow.NotFound("notification %s not found", id)
	}
	return err
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NotificationRepository().MarkAllAsRead(ctx, userID)
}

func payloadUUID(payload map[string]interface{}, key string) *uuid.UUID {
	raw, ok := payload[key].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// parseChannels defaults to web only when the column is empty or malformed.
func parseChannels(raw datatypes.JSON) map[string]bool {
	channels := map[string]bool{ChannelWeb: true}
	var list []string
	if len(raw) == 0 || json.Unmarshal(raw, &list) != nil {
		return channels
	}
	channels = make(map[string]bool, len(list))
	for _, c := range list {
		channels[strings.ToLower(strings.TrimSpace(c))] = true
	}
	return channels
}

func isMuted(pref *model.UserNotificationPreference, code string) bool {
	for _, muted := range pref.MutedTypes {
		if muted == code {
			return true
		}
	}
	return false
}
