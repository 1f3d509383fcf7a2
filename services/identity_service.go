package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/config"
	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
)

const googleCertsURL = "https://www.googleapis.com/oauth2/v3/certs"

// IdentityService verifies Google sign-ins and keeps the users collection in
// sync with the company directory. Reps are provisioned ahead of time by an
// admin; the first Google sign-in links the login account to the rep profile
// by email.
type IdentityService struct {
	DB     *mongo.Client
	logger *log.Logger
}

// GoogleIdentity holds the verified claims of a Google ID token.
type GoogleIdentity struct {
	Sub           string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

func NewIdentityService(db *mongo.Client) *IdentityService {
	return &IdentityService{
		DB:     db,
		logger: log.New(os.Stdout, "[IDENTITY] ", log.LstdFlags),
	}
}

// VerifyGoogleIDToken verifies the token signature against Google's published
// keys and returns the identity claims.
func (s *IdentityService) VerifyGoogleIDToken(idToken string) (*GoogleIdentity, error) {
	// Parse the JWT header to get the kid
	parts := strings.Split(idToken, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid token format")
	}
	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid JWT header: %w", err)
	}
	var header struct {
		Kid string `json:"kid"`
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("invalid JWT header JSON: %w", err)
	}

	// Fetch Google's public keys
	jwkSet, err := jwk.Fetch(context.Background(), googleCertsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Google public keys: %w", err)
	}

	key, found := jwkSet.LookupKeyID(header.Kid)
	if !found {
		return nil, fmt.Errorf("google public key not found for kid %s", header.Kid)
	}

	var pubkey interface{}
	if err := key.Raw(&pubkey); err != nil {
		return nil, fmt.Errorf("failed to parse Google public key: %w", err)
	}

	// Parse and verify the JWT
	parsedToken, err := jwt.Parse(idToken, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != header.Alg {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pubkey, nil
	})
	if err != nil || !parsedToken.Valid {
		return nil, fmt.Errorf("invalid or expired Google token: %v", err)
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("failed to extract claims")
	}

	iss := claimString(claims, "iss")
	if iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, fmt.Errorf("invalid token issuer: %s", iss)
	}

	// Validate audience against our OAuth client when configured
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		if aud := claimString(claims, "aud"); aud != clientID {
			return nil, fmt.Errorf("invalid token audience: %s", aud)
		}
	}

	ident := &GoogleIdentity{
		Sub:           claimString(claims, "sub"),
		Email:         strings.ToLower(claimString(claims, "email")),
		Name:          claimString(claims, "name"),
		Picture:       claimString(claims, "picture"),
		EmailVerified: claimEmailVerified(claims),
	}
	if ident.Email == "" || ident.Sub == "" {
		return nil, fmt.Errorf("token missing email or subject")
	}
	return ident, nil
}

// SyncUser upserts the login account behind a verified Google identity.
// Running it twice with the same identity changes nothing: lookups go by
// Google UID first, then email, and the concurrent-first-signin race is
// resolved by the unique email index plus a re-fetch.
func (s *IdentityService) SyncUser(ctx context.Context, ident *GoogleIdentity) (*models.User, *models.Rep, error) {
	users := config.GetCollection(s.DB, "users")
	reps := config.GetCollection(s.DB, "reps")

	var user models.User
	err := users.FindOne(ctx, bson.M{"googleUID": ident.Sub}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		err = users.FindOne(ctx, bson.M{"email": ident.Email}).Decode(&user)
	}

	if err == nil {
		// Known account; refresh the Google link fields if they drifted.
		set := bson.M{"updatedAt": time.Now()}
		if user.GoogleUID == "" {
			set["googleUID"] = ident.Sub
			set["googleEmail"] = ident.Email
		}
		if ident.Picture != "" && user.ProfilePic == "" {
			set["profilePic"] = ident.Picture
		}
		if _, err := users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
			return nil, nil, fmt.Errorf("failed to update user: %w", err)
		}
		rep := s.linkedRep(ctx, reps, &user)
		return &user, rep, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	// First sign-in. A pre-provisioned rep profile with this email claims the
	// account into the rep group; anyone else starts as crew.
	groups := []string{"crew"}
	var repID *primitive.ObjectID
	var rep models.Rep
	if err := reps.FindOne(ctx, bson.M{"email": ident.Email}).Decode(&rep); err == nil {
		groups = []string{"rep"}
		repID = &rep.ID
	}

	now := time.Now()
	newUser := models.User{
		ID:             primitive.NewObjectID(),
		Email:          ident.Email,
		FullName:       ident.Name,
		Groups:         groups,
		RepID:          repID,
		IsActive:       true,
		ProfilePic:     ident.Picture,
		GoogleUID:      ident.Sub,
		GoogleEmail:    ident.Email,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if _, err := users.InsertOne(ctx, newUser); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a concurrent first-signin race; the other insert won.
			if err := users.FindOne(ctx, bson.M{"email": ident.Email}).Decode(&user); err != nil {
				return nil, nil, fmt.Errorf("database error: %w", err)
			}
			repPtr := s.linkedRep(ctx, reps, &user)
			return &user, repPtr, nil
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	if repID != nil && rep.UserID.IsZero() {
		if _, err := reps.UpdateOne(ctx, bson.M{"_id": rep.ID}, bson.M{
			"$set": bson.M{"userId": newUser.ID, "updatedAt": now},
		}); err != nil {
			s.logger.Printf("Failed to link rep %s to new user: %v", rep.ID.Hex(), err)
		}
		rep.UserID = newUser.ID
	}

	if repID != nil {
		return &newUser, &rep, nil
	}
	return &newUser, nil, nil
}

// AuthenticateGoogle runs the whole sign-in flow: verify the ID token, sync
// the account, then issue our own JWT pair.
func (s *IdentityService) AuthenticateGoogle(ctx context.Context, idToken, fcmToken string) (*models.LoginData, error) {
	ident, err := s.VerifyGoogleIDToken(idToken)
	if err != nil {
		return nil, err
	}

	user, rep, err := s.SyncUser(ctx, ident)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated")
	}

	repID := ""
	if rep != nil {
		repID = rep.ID.Hex()
	}
	accessToken, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Groups, repID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	set := bson.M{"lastActivityAt": time.Now()}
	if fcmToken != "" {
		set["fcmToken"] = fcmToken
	}
	users := config.GetCollection(s.DB, "users")
	if _, err := users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set}); err != nil {
		s.logger.Printf("Failed to record sign-in for %s: %v", user.Email, err)
	}

	user.Password = ""
	return &models.LoginData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
		Rep:          rep,
	}, nil
}

func (s *IdentityService) linkedRep(ctx context.Context, reps *mongo.Collection, user *models.User) *models.Rep {
	filter := bson.M{"userId": user.ID}
	if user.RepID != nil {
		filter = bson.M{"_id": *user.RepID}
	}
	var rep models.Rep
	if err := reps.FindOne(ctx, filter).Decode(&rep); err != nil {
		return nil
	}
	return &rep
}

// claimString safely extracts string values from JWT claims
func claimString(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// claimEmailVerified handles Google returning email_verified as either a
// boolean or a string
func claimEmailVerified(claims jwt.MapClaims) bool {
	switch v := claims["email_verified"].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
