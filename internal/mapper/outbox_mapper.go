package mapper

import (
	"encoding/json"
	"fmt"

	"idealab-be/internal/entity"
	"idealab-be/internal/model"

	"gorm.io/datatypes"
)

type OutboxMapper struct{}

func NewOutboxMapper() *OutboxMapper {
	return &OutboxMapper{}
}

func (m *OutboxMapper) ToEntity(o *model.OutboxEvent) (*entity.OutboxEvent, error) {
	if o == nil {
		return nil, nil
	}
	payload := make(map[string]interface{})
	if len(o.Payload) > 0 {
		if err := json.Unmarshal(o.Payload, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode outbox payload %s: %w", o.Id, err)
		}
	}
	return &entity.OutboxEvent{
		Id:          o.Id,
		EventType:   o.EventType,
		AggregateId: o.AggregateId,
		Payload:     payload,
		Status:      entity.OutboxStatus(o.Status),
		Attempts:    o.Attempts,
		LastError:   o.LastError,
		CreatedAt:   o.CreatedAt,
		PublishedAt: o.PublishedAt,
	}, nil
}

func (m *OutboxMapper) ToModel(o *entity.OutboxEvent) (*model.OutboxEvent, error) {
	if o == nil {
		return nil, nil
	}
	raw, err := json.Marshal(o.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outbox payload: %w", err)
	}
	return &model.OutboxEvent{
		Id:          o.Id,
		EventType:   o.EventType,
		AggregateId: o.AggregateId,
		Payload:     datatypes.JSON(raw),
		Status:      string(o.Status),
		Attempts:    o.Attempts,
		LastError:   o.LastError,
		CreatedAt:   o.CreatedAt,
		PublishedAt: o.PublishedAt,
	}, nil
}
