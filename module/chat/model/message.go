package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TableName = "messages"

// Message is a direct message between two users. Immutable once inserted;
// ordering is created_at, ties broken by _id insertion order.
type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID   string             `bson:"sender_id" json:"senderId"`
	ReceiverID string             `bson:"receiver_id" json:"receiverId"`
	Text       string             `bson:"text,omitempty" json:"text,omitempty"`
	Image      string             `bson:"image,omitempty" json:"image,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

func (Message) GetTableName() string { return TableName }

// ContactPreview is a contact-list row: the peer plus last-message metadata.
type ContactPreview struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Email               string     `json:"email"`
	ProfilePic          string     `json:"profilePic,omitempty"`
	LastMessage         string     `json:"lastMessage,omitempty"`
	LastMessageTime     *time.Time `json:"lastMessageTime,omitempty"`
	LastMessageSenderID string     `json:"lastMessageSenderId,omitempty"`
}
