// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rooftrack/rooftrack_backend/middleware"
	"github.com/rooftrack/rooftrack_backend/models"
	"github.com/rooftrack/rooftrack_backend/repositories"
	"github.com/rooftrack/rooftrack_backend/utils"
)

// ReminderService nudges reps about deals that stopped moving and sweeps
// expired auth state in the background.
type ReminderService struct {
	db    *mongo.Client
	deals *repositories.DealRepository
	reps  *repositories.RepRepository
}

func NewReminderService(db *mongo.Client) *ReminderService {
	return &ReminderService{
		db:    db,
		deals: repositories.NewDealRepository(db),
		reps:  repositories.NewRepRepository(db),
	}
}

func (s *ReminderService) StartScheduler() {
	c := cron.New()

	// Stale-deal digest every morning at 9 AM
	c.AddFunc("0 9 * * *", s.SendStaleDealDigest)

	// Hourly sweep of expired blacklist tokens and OTP codes
	c.AddFunc("@hourly", s.CleanupExpiredAuthState)

	c.Start()
	log.Println("Reminder scheduler started")
}

// staleDealDays reads the digest threshold from the environment, defaulting
// to 14 days without a write.
func staleDealDays() int {
	if v := os.Getenv("STALE_DEAL_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			return days
		}
	}
	return 14
}

// SendStaleDealDigest finds deals stuck mid-lifecycle and emails each owning
// rep a digest of what needs a push.
func (s *ReminderService) SendStaleDealDigest() {
	log.Println("Starting stale deal digest...")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -staleDealDays())
	stale, err := s.deals.FindStale(ctx, cutoff)
	if err != nil {
		log.Printf("Failed to fetch stale deals: %v", err)
		return
	}
	if len(stale) == 0 {
		log.Println("No stale deals found")
		return
	}

	// Group by owning rep
	byRep := make(map[primitive.ObjectID][]models.Deal)
	for _, deal := range stale {
		byRep[deal.RepID] = append(byRep[deal.RepID], deal)
	}

	for repID, deals := range byRep {
		s.sendRepDigest(ctx, repID, deals)
	}

	log.Printf("Stale deal digest completed: %d deals across %d reps", len(stale), len(byRep))
}

func (s *ReminderService) sendRepDigest(ctx context.Context, repID primitive.ObjectID, deals []models.Deal) {
	rep, err := s.reps.FindByID(ctx, repID)
	if err != nil {
		log.Printf("Rep %s: failed to load for digest: %v", repID.Hex(), err)
		return
	}
	if !rep.Active {
		return
	}

	var lines []string
	for _, deal := range deals {
		label := string(deal.Status)
		if info, ok := models.CatalogEntry(deal.Status); ok {
			label = info.Label
		}
		days := int(time.Since(deal.UpdatedAt).Hours() / 24)
		lines = append(lines, fmt.Sprintf("- %s (%s, no movement for %d days)", deal.HomeownerName, label, days))
	}

	subject := fmt.Sprintf("%d deal(s) waiting on you", len(deals))
	body := fmt.Sprintf("Dear %s,\n\nThese deals have not moved in a while:\n\n%s\n\nOpen RoofTrack to push them forward.\n\nBest regards,\nRoofTrack",
		rep.Name, strings.Join(lines, "\n"))
	utils.SendEmail(rep.Email, subject, body)

	if rep.UserID != primitive.NilObjectID {
		if err := utils.SaveNotification(s.db, rep.UserID, subject,
			fmt.Sprintf("%d of your deals have had no movement for %d+ days.", len(deals), staleDealDays()),
			"stale_deals", map[string]interface{}{"count": len(deals)}); err != nil {
			log.Printf("Rep %s: failed to save digest notification: %v", repID.Hex(), err)
		}
	}
}

// CleanupExpiredAuthState drops expired JWTs from the in-memory blacklist and
// clears used-up OTP codes from user records.
func (s *ReminderService) CleanupExpiredAuthState() {
	middleware.CleanupBlacklist()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := s.db.Database("rooftrack").Collection("users")
	result, err := users.UpdateMany(ctx,
		bson.M{"otpInfo.expiresAt": bson.M{"$lt": time.Now()}},
		bson.M{"$unset": bson.M{"otpInfo": ""}},
	)
	if err != nil {
		log.Printf("Failed to clear expired OTPs: %v", err)
		return
	}
	if result.ModifiedCount > 0 {
		log.Printf("Cleared %d expired OTP(s)", result.ModifiedCount)
	}
}
