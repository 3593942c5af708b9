package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"document-rag-platform/internal/auth"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
	"document-rag-platform/utils"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetupAuthRoutes registers curator login.
func SetupAuthRoutes(router *gin.Engine, cfg *config.Config, db *mongo.Database) {
	curators := db.Collection("curators")

	router.POST("/auth/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Username and password are required", nil)
			return
		}

		var curator models.Curator
		err := curators.FindOne(c.Request.Context(), bson.M{"username": req.Username}).Decode(&curator)
		if err != nil || !utils.CheckPassword(req.Password, curator.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		ttl, err := time.ParseDuration(cfg.AccessTokenTTL)
		if err != nil {
			ttl = 24 * time.Hour
		}

		token, expiresAt, err := auth.IssueAccessToken(
			[]byte(cfg.JWTSecret), curator.ID.Hex(), curator.Username, ttl)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue token", nil)
			return
		}

		now := time.Now().UTC()
		curators.UpdateOne(c.Request.Context(),
			bson.M{"_id": curator.ID},
			bson.M{"$set": bson.M{"last_login_at": now}})

		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"expires_at":   expiresAt,
			"username":     curator.Username,
		})
	})
}

// EnsureBootstrapCurator creates the initial curator account from the
// environment when the collection is empty, so a fresh deployment is
// usable without manual database edits.
func EnsureBootstrapCurator(ctx context.Context, cfg *config.Config, db *mongo.Database) error {
	if cfg.BootstrapCurator == "" || cfg.BootstrapPassword == "" {
		return nil
	}

	curators := db.Collection("curators")
	count, err := curators.CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(cfg.BootstrapPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}

	_, err = curators.InsertOne(ctx, models.Curator{
		Username:     cfg.BootstrapCurator,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	logger.Info("Bootstrap curator created", "username", cfg.BootstrapCurator)
	return nil
}
