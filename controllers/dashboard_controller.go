package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"recomendaleads/models"
	"recomendaleads/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{DB: db, Logger: logger}
}

type dashboardMetrics struct {
	TotalClients          int64   `json:"totalClients"`
	ActiveClients         int64   `json:"activeClients"`
	TotalRecommendations  int64   `json:"totalRecommendations"`
	RecommendationsToday  int64   `json:"recommendationsToday"`
	TotalReferredClients  int64   `json:"totalReferredClients"`
	Conversions           int64   `json:"conversions"`
	ConversionRate        float64 `json:"conversionRate"`
	ActiveAgents          int64   `json:"activeAgents"`
	GiftsSent             int64   `json:"giftsSent"`
	FollowUpsSentLastWeek int64   `json:"followUpsSentLastWeek"`
}

// GetMetrics aggregates the dashboard counters. The queries run
// concurrently; a single failed counter is logged and reported as zero
// rather than failing the whole dashboard.
func (dc *DashboardController) GetMetrics(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var metrics dashboardMetrics
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)

	count := func(dest *int64, name string, query func(*gorm.DB) *gorm.DB) func() error {
		return func() error {
			if err := query(dc.DB.Session(&gorm.Session{})).Count(dest).Error; err != nil {
				dc.Logger.Printf("Dashboard counter %s failed for user %d: %v", name, user.ID, err)
			}
			return nil
		}
	}

	var g errgroup.Group
	g.Go(count(&metrics.TotalClients, "total_clients", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Client{}).Where("user_id = ?", user.ID)
	}))
	g.Go(count(&metrics.ActiveClients, "active_clients", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Client{}).
			Where("user_id = ? AND status = ?", user.ID, models.ClientStatusCollecting)
	}))
	g.Go(count(&metrics.TotalRecommendations, "total_recommendations", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Recommendation{}).Where("user_id = ?", user.ID)
	}))
	g.Go(count(&metrics.RecommendationsToday, "recommendations_today", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Recommendation{}).
			Where("user_id = ? AND created_at >= ?", user.ID, startOfDay)
	}))
	g.Go(count(&metrics.TotalReferredClients, "referred_clients", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.ReferredClient{}).Where("user_id = ?", user.ID)
	}))
	g.Go(count(&metrics.Conversions, "converted_referrals", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.ReferredClient{}).
			Where("user_id = ? AND status = ?", user.ID, models.ReferredStatusConverted)
	}))
	g.Go(count(&metrics.ActiveAgents, "active_agents", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.Agent{}).
			Where("user_id = ? AND status = ?", user.ID, models.AgentStatusActive)
	}))
	g.Go(count(&metrics.GiftsSent, "gifts_sent", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.GamificationPayout{}).Where("user_id = ?", user.ID)
	}))
	g.Go(count(&metrics.FollowUpsSentLastWeek, "follow_ups_last_week", func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.FollowUpDelivery{}).
			Where("user_id = ? AND created_at >= ?", user.ID, weekAgo)
	}))
	g.Wait()

	if metrics.TotalReferredClients > 0 {
		metrics.ConversionRate = float64(metrics.Conversions) / float64(metrics.TotalReferredClients) * 100
	}

	return c.JSON(utils.SuccessResponse(metrics))
}

// GetActivity returns the most recent timeline events across all of the
// user's clients and referred clients.
func (dc *DashboardController) GetActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	limit := utils.ParseUint(c.Query("limit", "20"))
	if limit == 0 || limit > 100 {
		limit = 20
	}

	var events []models.TimelineEvent
	if err := dc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(int(limit)).
		Find(&events).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activity", nil)
	}

	return c.JSON(utils.SuccessResponse(events))
}
