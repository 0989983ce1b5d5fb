// Package service resolves verified token subjects to full user records.
package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	usermodel "shopchat/module/user/model"
	"shopchat/tools/errs"
)

type UserService struct {
	coll *mongo.Collection
}

func NewUserService(db *mongo.Database) *UserService {
	u := usermodel.User{}
	return &UserService{coll: db.Collection(u.GetTableName())}
}

// FindByID looks up a user by its stable user id. A subject that was valid
// at token issuance may have been deleted since; that surfaces as
// errs.ErrUserNotFound, not as an internal error.
func (s *UserService) FindByID(ctx context.Context, userID string) (*usermodel.User, error) {
	var user usermodel.User
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find user")
	}
	return &user, nil
}
