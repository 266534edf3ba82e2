package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const TableName = "users"

// User is the account master record. The password hash never serializes to
// JSON.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	Password   string             `bson:"password" json:"-"`
	ProfilePic string             `bson:"profile_pic,omitempty" json:"profilePic,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (User) GetTableName() string { return TableName }
