package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/rooftrack/rooftrack_backend/config"
	"github.com/rooftrack/rooftrack_backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"
)

// SaveNotification saves a notification to the database
func SaveNotification(db *mongo.Client, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	collection := db.Database("rooftrack").Collection("notifications")

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(context.Background(), notification)
	return err
}

// SaveDealNotification saves a notification linked to a deal so the mobile app
// can deep-link straight into the deal detail screen.
func SaveDealNotification(db *mongo.Client, userID, dealID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	collection := db.Database("rooftrack").Collection("notifications")

	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		DealID:    &dealID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := collection.InsertOne(context.Background(), notification)
	return err
}

// SendEmail sends a plain-text email through the configured SMTP relay.
// Failures are logged, not returned; email is best-effort alongside in-app
// notifications.
func SendEmail(to, subject, body string) {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 2525
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}
	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	if err := d.DialAndSend(m); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
	}
}

// NotifyManagerOfDealMilestone notifies the rep's manager by email and in-app
// notification when a deal crosses a milestone worth surfacing (approval,
// contract signed, completion).
func NotifyManagerOfDealMilestone(db *mongo.Client, repID, dealID primitive.ObjectID, homeownerName, statusLabel string) error {
	// Find rep
	var rep models.Rep
	err := db.Database("rooftrack").Collection("reps").FindOne(context.Background(), bson.M{"_id": repID}).Decode(&rep)
	if err != nil {
		return fmt.Errorf("failed to find rep: %w", err)
	}
	if rep.ManagerID == nil {
		return nil
	}
	// Find manager
	var manager models.Rep
	err = db.Database("rooftrack").Collection("reps").FindOne(context.Background(), bson.M{"_id": *rep.ManagerID}).Decode(&manager)
	if err != nil {
		return fmt.Errorf("failed to find manager: %w", err)
	}
	// Compose email
	subject := fmt.Sprintf("Deal update: %s is now %s", homeownerName, statusLabel)
	body := fmt.Sprintf("Dear %s,\n\nThe deal for %s handled by %s has moved to %s.\n\nBest regards,\nRoofTrack", manager.Name, homeownerName, rep.Name, statusLabel)
	SendEmail(manager.Email, subject, body)
	// Save in-app notification for the manager's login account
	if manager.UserID != primitive.NilObjectID {
		notifMsg := fmt.Sprintf("%s moved the deal for %s to %s.", rep.Name, homeownerName, statusLabel)
		_ = SaveDealNotification(db, manager.UserID, dealID, subject, notifMsg, "status_advanced", map[string]interface{}{
			"dealId":      dealID.Hex(),
			"repId":       repID.Hex(),
			"statusLabel": statusLabel,
		})
	}
	return nil
}

// NotifyRepOfCommissionPaid emails the rep and drops an in-app notification
// when an admin marks a commission row paid.
func NotifyRepOfCommissionPaid(db *mongo.Client, repID, dealID primitive.ObjectID, amount float64, commissionType string) error {
	var rep models.Rep
	err := db.Database("rooftrack").Collection("reps").FindOne(context.Background(), bson.M{"_id": repID}).Decode(&rep)
	if err != nil {
		return fmt.Errorf("failed to find rep: %w", err)
	}
	subject := "Commission paid"
	body := fmt.Sprintf("Dear %s,\n\nYour %s commission of $%.2f has been marked paid.\n\nBest regards,\nRoofTrack", rep.Name, commissionType, amount)
	SendEmail(rep.Email, subject, body)
	if rep.UserID != primitive.NilObjectID {
		notifMsg := fmt.Sprintf("Your %s commission of $%.2f has been paid.", commissionType, amount)
		_ = SaveDealNotification(db, rep.UserID, dealID, subject, notifMsg, "commission_paid", map[string]interface{}{
			"dealId": dealID.Hex(),
			"amount": fmt.Sprintf("%.2f", amount),
			"type":   commissionType,
		})
	}
	return nil
}

// SendFCMNotificationToUser sends a Firebase Cloud Messaging notification to a user
func SendFCMNotificationToUser(db *mongo.Client, userID primitive.ObjectID, title, message string, data map[string]interface{}) error {
	// Get user's FCM token from database
	collection := db.Database("rooftrack").Collection("users")
	var user models.User
	err := collection.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.FCMToken == "" {
		log.Printf("User %s has no FCM token", userID.Hex())
		return fmt.Errorf("user has no FCM token")
	}

	if config.FirebaseApp == nil {
		log.Printf("Firebase app is not initialized")
		return fmt.Errorf("firebase app not initialized")
	}

	ctx := context.Background()
	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		log.Printf("Error getting messaging client: %v", err)
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	notificationData := map[string]string{
		"type":      "deal_update",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	// Override/merge with provided data
	if data != nil {
		for key, value := range data {
			if str, ok := value.(string); ok {
				notificationData[key] = str
			} else {
				notificationData[key] = ""
			}
		}
	}

	fcmMessage := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
		Data: notificationData,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "rooftrack_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  message,
					},
					Sound:    "default",
					Badge:    func() *int { v := 1; return &v }(),
					Category: "DEAL_UPDATE",
				},
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		log.Printf("Error sending FCM notification to user: %v", err)
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent successfully to user %s: %s", userID.Hex(), response)
	return nil
}

// SendDealStatusNotification pushes a status-advance notification to the rep
// who owns the deal. Missing FCM tokens and push failures only log; the
// status change itself has already been persisted.
func SendDealStatusNotification(db *mongo.Client, repID, dealID primitive.ObjectID, homeownerName, statusLabel string) {
	var rep models.Rep
	err := db.Database("rooftrack").Collection("reps").FindOne(context.Background(), bson.M{"_id": repID}).Decode(&rep)
	if err != nil {
		log.Printf("Failed to find rep %s for status push: %v", repID.Hex(), err)
		return
	}
	if rep.UserID == primitive.NilObjectID {
		return
	}

	title := fmt.Sprintf("Deal moved to %s", statusLabel)
	message := fmt.Sprintf("The deal for %s is now %s.", homeownerName, statusLabel)

	_ = SaveDealNotification(db, rep.UserID, dealID, title, message, "status_advanced", map[string]interface{}{
		"dealId":      dealID.Hex(),
		"statusLabel": statusLabel,
	})

	if err := SendFCMNotificationToUser(db, rep.UserID, title, message, map[string]interface{}{
		"type":        "status_advanced",
		"dealId":      dealID.Hex(),
		"statusLabel": statusLabel,
	}); err != nil {
		log.Printf("Status push for deal %s not delivered: %v", dealID.Hex(), err)
	}
}
