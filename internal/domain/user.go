package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gender values accepted on registration.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Role values carried in token claims.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Avatar holds a profile image reference.
type Avatar struct {
	PublicID string `bson:"publicId,omitempty" json:"publicId,omitempty"`
	URL      string `bson:"url,omitempty" json:"url,omitempty"`
}

// User represents a registered account.
//
// Password and OTP are bcrypt hashes and never serialized. Phone is stored
// AES-GCM encrypted; decryption happens only when a profile is read by its
// owner. ChangeCredentialTime is the credential-change watermark: any token
// issued before it is stale.
type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string             `bson:"name" json:"name"`
	Email                string             `bson:"email" json:"email"`
	Password             string             `bson:"password" json:"-"`
	Phone                string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender               string             `bson:"gender" json:"gender"`
	Role                 string             `bson:"role" json:"role"`
	OTP                  string             `bson:"otp,omitempty" json:"-"`
	ConfirmEmail         *time.Time         `bson:"confirmEmail,omitempty" json:"confirmEmail,omitempty"`
	ChangeCredentialTime *time.Time         `bson:"changeCredentialTime,omitempty" json:"-"`
	Avatar               *Avatar            `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsFrozen             bool               `bson:"isFrozen" json:"isFrozen"`
	IsDeleted            bool               `bson:"isDeleted" json:"isDeleted"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}
