package model

import "time"

// Role values.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is the user master record. The gateway only reads it; account
// management lives in the surrounding CRUD service.
type User struct {
	UserID string `bson:"user_id" json:"userId"` // globally unique, immutable
	Email  string `bson:"email" json:"email"`
	Role   string `bson:"role" json:"role"` // customer | admin

	CreateTime time.Time `bson:"create_time" json:"-"`
	UpdateTime time.Time `bson:"update_time" json:"-"`
}

func (u *User) GetTableName() string {
	return "user"
}
