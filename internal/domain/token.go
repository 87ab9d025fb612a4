package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token is a session revocation record. The presence of a record for a
// JWT's unique identifier marks that token as unusable even though its
// signature still verifies. ExpireIn is set to issuance plus one year so
// the record outlives the token and can be pruned later.
type Token struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	JWTID     string             `bson:"jwtId" json:"jwtId"`
	ExpireIn  time.Time          `bson:"expireIn" json:"expireIn"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
