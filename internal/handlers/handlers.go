// Package handlers exposes the gameplay core over gin. Handlers stay thin:
// identity and admission are resolved in middleware, the game service owns
// all rules, and every denial carries a distinct error code the client can
// render without guessing.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AnishKajan/ComicGuess-sub002/internal/auth"
	"github.com/AnishKajan/ComicGuess-sub002/internal/game"
	"github.com/AnishKajan/ComicGuess-sub002/internal/models"
	"github.com/AnishKajan/ComicGuess-sub002/internal/puzzle"
	"github.com/AnishKajan/ComicGuess-sub002/internal/ratelimit"
	"github.com/AnishKajan/ComicGuess-sub002/internal/storage"
	"github.com/AnishKajan/ComicGuess-sub002/internal/util"
)

// API error codes. Stable contract with clients; never collapse these into a
// generic failure.
const (
	CodeInvalidUniverse    = "invalid_universe"
	CodeInvalidGuess       = "invalid_guess"
	CodeInvalidDate        = "invalid_date"
	CodeEmptyPool          = "empty_pool"
	CodePuzzleNotFound     = "puzzle_not_found"
	CodeAlreadySolved      = "already_solved"
	CodeNoMoreAttempts     = "no_more_attempts"
	CodeUserNotFound       = "user_not_found"
	CodeRateLimited        = "rate_limited"
	CodeUnauthorized       = "unauthorized"
	CodeStorageUnavailable = "storage_unavailable"
)

const userIDContextKey = "auth_user_id"

type Server struct {
	Game       *game.Service
	Selector   *puzzle.Selector
	Users      storage.UserRepository
	Limiter    *ratelimit.Limiter
	Verifier   *auth.Verifier
	AdminToken string
	StartTime  time.Time
}

// AuthRequired verifies the bearer token and stores the subject for the
// handler. Gameplay endpoints all require an identity.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeUnauthorized, "detail": "missing bearer token"})
			return
		}
		sub, err := s.Verifier.Subject(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeUnauthorized, "detail": "invalid token"})
			return
		}
		c.Set(userIDContextKey, sub)
		c.Next()
	}
}

// userID returns the authenticated subject, or "" when identity derivation
// failed or was never attempted. Rate limiting fails open to the
// address-only check in that case.
func (s *Server) userID(c *gin.Context) string {
	if id, ok := c.Get(userIDContextKey); ok {
		if str, ok := id.(string); ok {
			return str
		}
	}
	token, ok := auth.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		return ""
	}
	sub, err := s.Verifier.Subject(token)
	if err != nil {
		return ""
	}
	return sub
}

// RateLimit gates one endpoint class with the sliding-window limiter across
// both the address and user dimensions.
func (s *Server) RateLimit(class string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ratelimit.ClientKey(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr)
		decision := s.Limiter.Check(key, s.userID(c), class, time.Now())
		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds() + 0.999)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.Header("X-RateLimit-Remaining", "0")
			util.LogWarn("Rate limit exceeded for key %s on class %s", key, class)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      CodeRateLimited,
				"detail":     "too many requests",
				"retryAfter": retryAfter,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}

// AdminRequired guards governance endpoints with the shared admin token.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.AdminToken == "" || c.GetHeader("X-Admin-Token") != s.AdminToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeUnauthorized, "detail": "admin token required"})
			return
		}
		c.Next()
	}
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidUniverse):
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidUniverse, "detail": err.Error()})
	case errors.Is(err, models.ErrInvalidGuess):
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidGuess, "detail": err.Error()})
	case errors.Is(err, models.ErrEmptyPool):
		// Misconfiguration, not a client problem.
		c.JSON(http.StatusInternalServerError, gin.H{"error": CodeEmptyPool, "detail": err.Error()})
	case errors.Is(err, models.ErrPuzzleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": CodePuzzleNotFound, "detail": err.Error()})
	case errors.Is(err, models.ErrAlreadySolved):
		c.JSON(http.StatusConflict, gin.H{"error": CodeAlreadySolved, "detail": err.Error()})
	case errors.Is(err, models.ErrAttemptsExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": CodeNoMoreAttempts, "detail": err.Error()})
	case errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": CodeUserNotFound, "detail": err.Error()})
	default:
		util.LogWarn("Storage failure surfaced to client: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": CodeStorageUnavailable, "detail": "temporary storage failure"})
	}
}

// requestDate resolves the optional ?date= override, defaulting to today.
func requestDate(c *gin.Context) (string, bool) {
	date := c.Query("date")
	if date == "" {
		return util.Today(), true
	}
	if !util.ValidDay(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidDate, "detail": "date must be YYYY-MM-DD"})
		return "", false
	}
	return date, true
}

type guessRequest struct {
	Universe string `json:"universe" binding:"required"`
	Guess    string `json:"guess" binding:"required"`
}

// SubmitGuess handles POST /api/guess.
func (s *Server) SubmitGuess(c *gin.Context) {
	var req guessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidGuess, "detail": "universe and guess are required"})
		return
	}
	outcome, err := s.Game.SubmitGuess(c.Request.Context(), c.GetString(userIDContextKey), req.Universe, util.Today(), req.Guess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// PuzzleStatus handles GET /api/puzzle/:universe/status.
func (s *Server) PuzzleStatus(c *gin.Context) {
	date, ok := requestDate(c)
	if !ok {
		return
	}
	status, err := s.Game.PuzzleStatus(c.Request.Context(), c.GetString(userIDContextKey), c.Param("universe"), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// PuzzleMeta handles GET /api/puzzle/:universe — today's puzzle without the
// answer.
func (s *Server) PuzzleMeta(c *gin.Context) {
	universe := c.Param("universe")
	date, ok := requestDate(c)
	if !ok {
		return
	}
	if !models.IsUniverse(universe) {
		respondError(c, models.ErrInvalidUniverse)
		return
	}
	p, err := s.Selector.GetOrCreate(c.Request.Context(), universe, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         p.ID,
		"universe":   p.Universe,
		"activeDate": p.ActiveDate,
		"aliasCount": len(p.Aliases),
	})
}

// Streaks handles GET /api/streaks.
func (s *Server) Streaks(c *gin.Context) {
	streaks, err := s.Game.Streaks(c.Request.Context(), c.GetString(userIDContextKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"streaks": streaks})
}

// Progress handles GET /api/progress.
func (s *Server) Progress(c *gin.Context) {
	date, ok := requestDate(c)
	if !ok {
		return
	}
	progress, err := s.Game.Progress(c.Request.Context(), c.GetString(userIDContextKey), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "progress": progress})
}

type hotfixRequest struct {
	Universe  string   `json:"universe" binding:"required"`
	Date      string   `json:"date" binding:"required"`
	Character string   `json:"character" binding:"required"`
	Aliases   []string `json:"aliases"`
	ImageKey  string   `json:"imageKey"`
}

// Hotfix handles POST /api/admin/hotfix, the audited character override.
func (s *Server) Hotfix(c *gin.Context) {
	var req hotfixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidGuess, "detail": "universe, date and character are required"})
		return
	}
	if !util.ValidDay(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidDate, "detail": "date must be YYYY-MM-DD"})
		return
	}
	p, err := s.Selector.Hotfix(c.Request.Context(), req.Universe, req.Date, models.Character{
		Name:     req.Character,
		Aliases:  req.Aliases,
		ImageKey: req.ImageKey,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
}

// CreateUser handles POST /api/admin/users. Account issuance proper lives in
// the external auth service; this exists for provisioning and smoke tests.
func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": CodeInvalidGuess, "detail": "username is required"})
		return
	}
	u := &models.User{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Streaks:   make(map[string]models.UserStreak),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Users.Create(c.Request.Context(), u); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"uptime":      time.Since(s.StartTime).Round(time.Second).String(),
		"rateWindows": s.Limiter.Size(),
	})
}
