// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an auth identity. Role comes from Groups ("admin", "rep", "crew");
// for reps and crew RepID points at the matching profile in the reps
// collection.
type User struct {
	ID             primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email          string              `json:"email" bson:"email"`
	Password       string              `json:"-" bson:"password,omitempty"`
	FullName       string              `json:"fullName" bson:"fullName"`
	Groups         []string            `json:"groups" bson:"groups"`
	RepID          *primitive.ObjectID `json:"repId,omitempty" bson:"repId,omitempty"`
	Phone          string              `json:"phone,omitempty" bson:"phone,omitempty"`
	IsActive       bool                `json:"isActive" bson:"isActive"`
	ProfilePic     string              `json:"profilePic,omitempty" bson:"profilePic,omitempty"`
	GoogleUID      string              `json:"googleUID,omitempty" bson:"googleUID,omitempty"`
	GoogleEmail    string              `json:"googleEmail,omitempty" bson:"googleEmail,omitempty"`
	FCMToken       string              `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	OTPInfo        *OTPInfo            `json:"-" bson:"otpInfo,omitempty"`
	PhoneVerified  bool                `json:"phoneVerified,omitempty" bson:"phoneVerified,omitempty"`
	LastActivityAt time.Time           `json:"lastActivityAt" bson:"lastActivityAt"`
	CreatedAt      time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// OTPInfo holds a short-lived one-time code sent over SMS for password resets.
type OTPInfo struct {
	OTP       string    `json:"otp" bson:"otp"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// AuthRequest models
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"rememberMe,omitempty"`
	FCMToken   string `json:"fcmToken,omitempty"`
}

// GoogleAuthRequest carries the ID token from the mobile Google sign-in flow.
type GoogleAuthRequest struct {
	TokenID  string `json:"tokenId" validate:"required"`
	FCMToken string `json:"fcmToken,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

type ForgotPasswordRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type ResetPasswordRequest struct {
	Phone       string `json:"phone" validate:"required"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// LoginData is the payload returned on successful authentication.
type LoginData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
	Rep          *Rep   `json:"rep,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
