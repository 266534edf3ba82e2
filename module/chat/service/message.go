package service

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	chatmodel "baatcheet/module/chat/model"
	usermodel "baatcheet/module/user/model"
	"baatcheet/tools/errs"
)

func msgColl(db *mongo.Database) *mongo.Collection {
	return db.Collection(chatmodel.TableName)
}

// Insert persists a message and fills in server-assigned ID and timestamp.
// The canonical record it returns is exactly what the relay pushes.
func Insert(ctx context.Context, db *mongo.Database, m *chatmodel.Message) (*chatmodel.Message, error) {
	if m.SenderID == "" || m.ReceiverID == "" {
		return nil, errs.ErrArgs.WithDetail("sender and receiver required")
	}
	if m.Text == "" && m.Image == "" {
		return nil, errs.ErrMessageEmpty
	}
	m.CreatedAt = time.Now()
	res, err := msgColl(db).InsertOne(ctx, m)
	if err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}
	m.ID = res.InsertedID.(primitive.ObjectID)
	return m, nil
}

func pairFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
}

// History returns the full conversation between a and b, oldest first.
// Secondary _id sort keeps insertion order for equal timestamps.
func History(ctx context.Context, db *mongo.Database, a, b string) ([]chatmodel.Message, error) {
	cur, err := msgColl(db).Find(ctx, pairFilter(a, b),
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}
	msgs := make([]chatmodel.Message, 0)
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}
	return msgs, nil
}

func lastBetween(ctx context.Context, db *mongo.Database, a, b string) (*chatmodel.Message, error) {
	var m chatmodel.Message
	err := msgColl(db).FindOne(ctx, pairFilter(a, b),
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Contacts lists all other users with their last-message preview, most
// recently talked-to first; contacts without history sort last.
func Contacts(ctx context.Context, db *mongo.Database, me string) ([]chatmodel.ContactPreview, error) {
	meOID, err := primitive.ObjectIDFromHex(me)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id")
	}

	cur, err := db.Collection(usermodel.TableName).Find(ctx, bson.M{"_id": bson.M{"$ne": meOID}})
	if err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}
	var users []usermodel.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}

	previews := make([]chatmodel.ContactPreview, 0, len(users))
	for _, u := range users {
		p := chatmodel.ContactPreview{
			ID:         u.ID.Hex(),
			Username:   u.Username,
			Email:      u.Email,
			ProfilePic: u.ProfilePic,
		}
		last, err := lastBetween(ctx, db, me, u.ID.Hex())
		if err != nil {
			return nil, errs.ErrDatabase.WithDetail(err.Error())
		}
		if last != nil {
			switch {
			case last.Text != "":
				p.LastMessage = last.Text
			case last.Image != "":
				p.LastMessage = "\U0001F4F7 Image"
			}
			t := last.CreatedAt
			p.LastMessageTime = &t
			p.LastMessageSenderID = last.SenderID
		}
		previews = append(previews, p)
	}

	sort.SliceStable(previews, func(i, j int) bool {
		ti, tj := previews[i].LastMessageTime, previews[j].LastMessageTime
		if ti == nil {
			return false
		}
		if tj == nil {
			return true
		}
		return ti.After(*tj)
	})
	return previews, nil
}
