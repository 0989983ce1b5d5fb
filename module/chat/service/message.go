// Package service persists chat messages. The insertion order of the
// backing collection is the order authority every client observes.
package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	chatmodel "shopchat/module/chat/model"
	"shopchat/tools/errs"
)

type MessageService struct {
	coll *mongo.Collection
}

func NewMessageService(db *mongo.Database) *MessageService {
	m := chatmodel.ChatMessage{}
	return &MessageService{coll: db.Collection(m.GetTableName())}
}

// Append durably stores one message and returns the stored record with the
// server-assigned id and timestamp. Empty or whitespace-only text is refused
// before touching the store.
func (s *MessageService) Append(ctx context.Context, userID, userEmail, role, text string) (*chatmodel.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errs.ErrEmptyText
	}

	msg := &chatmodel.ChatMessage{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		UserEmail: userEmail,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return nil, errs.ErrPersistence.Wrap(err)
	}
	return msg, nil
}
