package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage is one durably stored chat message. ID and CreatedAt are
// assigned by the store at write time, never by the sender.
type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	UserEmail string             `bson:"user_email" json:"userEmail"`
	Role      string             `bson:"role" json:"role"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

func (m *ChatMessage) GetTableName() string {
	return "chat_message"
}
