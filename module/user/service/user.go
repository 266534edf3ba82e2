package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"baatcheet/logger"
	usermodel "baatcheet/module/user/model"
	"baatcheet/service/storage"
	"baatcheet/tools/errs"
	"baatcheet/tools/security"
)

func coll(db *mongo.Database) *mongo.Collection {
	return db.Collection(usermodel.TableName)
}

type SignupParams struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account with a bcrypt-hashed password. Email is the
// unique key.
func Signup(ctx context.Context, db *mongo.Database, p SignupParams) (*usermodel.User, error) {
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if p.Username == "" || p.Email == "" || p.Password == "" {
		return nil, errs.ErrArgs.WithDetail("username, email and password are required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return nil, errs.ErrArgs.WithDetail("invalid email address")
	}

	var existing usermodel.User
	err := coll(db).FindOne(ctx, bson.M{"email": p.Email}).Decode(&existing)
	if err == nil {
		return nil, errs.ErrUserExists
	}
	if err != mongo.ErrNoDocuments {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}

	hash, err := security.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := usermodel.User{
		Username:  p.Username,
		Email:     p.Email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := coll(db).InsertOne(ctx, u)
	if err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return &u, nil
}

// Login verifies credentials and issues a token. The session record in
// redis is best-effort: login still succeeds if redis is down, revocation
// just loses its fast path.
func Login(ctx context.Context, db *mongo.Database, opts security.Options, email, password string) (*usermodel.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", time.Time{}, errs.ErrArgs.WithDetail("email and password are required")
	}

	var u usermodel.User
	err := coll(db).FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, "", time.Time{}, errs.ErrPassword
	}
	if err != nil {
		return nil, "", time.Time{}, errs.ErrDatabase.WithDetail(err.Error())
	}
	if !security.CheckPassword(u.Password, password) {
		return nil, "", time.Time{}, errs.ErrPassword
	}

	token, hash, exp, err := security.Generate(opts, u.ID.Hex())
	if err != nil {
		return nil, "", time.Time{}, errs.Wrap(err)
	}
	if storage.Ready() {
		if err := storage.SaveSession(ctx, hash, u.ID.Hex(), time.Until(exp)); err != nil {
			logger.Warnf("[user] save session failed: %v", err)
		}
	}
	return &u, token, exp, nil
}

// Logout revokes the session record for the presented token.
func Logout(ctx context.Context, token string) {
	if token == "" || !storage.Ready() {
		return
	}
	if err := storage.RevokeSession(ctx, security.HashToken(token)); err != nil {
		logger.Warnf("[user] revoke session failed: %v", err)
	}
}

// GetByID fetches a user by hex object ID.
func GetByID(ctx context.Context, db *mongo.Database, id string) (*usermodel.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id")
	}
	var u usermodel.User
	err = coll(db).FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}
	return &u, nil
}

// UpdateProfilePic stores a new avatar URL.
func UpdateProfilePic(ctx context.Context, db *mongo.Database, id, picURL string) (*usermodel.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrArgs.WithDetail("bad user id")
	}
	_, err = coll(db).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"profile_pic": picURL, "updated_at": time.Now()}},
	)
	if err != nil {
		return nil, errs.ErrDatabase.WithDetail(err.Error())
	}
	return GetByID(ctx, db, id)
}
