package http

import (
	"net/http"
	"time"

	apperrors "noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/common/middleware"
	"noz-miniapp-backend/internal/features/ledger/models"
	"noz-miniapp-backend/internal/features/ledger/service"
	"noz-miniapp-backend/internal/service/adsgram"

	"github.com/gin-gonic/gin"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

type Handler struct {
	service     *service.Service
	ads         adsgram.Provider
	botUsername string
	appName     string
}

func NewHandler(svc *service.Service, ads adsgram.Provider, botUsername, appName string) *Handler {
	return &Handler{
		service:     svc,
		ads:         ads,
		botUsername: botUsername,
		appName:     appName,
	}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, adminIDs []int64) {
	ledger := router.Group("/ledger")
	{
		ledger.GET("/me", h.getMe)
		ledger.GET("/referrals", h.listReferrals)
		ledger.GET("/ads/eligibility", h.adEligibility)
		ledger.POST("/ads/watch", h.watchAd)
		ledger.POST("/withdrawals/check", h.checkWithdrawal)
		ledger.POST("/withdrawals", h.requestWithdrawal)
		ledger.GET("/withdrawals", h.listWithdrawals)
		ledger.POST("/reset", h.reset)
	}

	admin := router.Group("/ledger")
	admin.Use(middleware.RequireAdmin(adminIDs))
	{
		admin.POST("/balance", h.updateBalance)
	}
}

func identityFrom(user initdata.User) models.Identity {
	return models.Identity{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		PhotoURL:  user.PhotoURL,
	}
}

// MeResponse is the login payload
// @Description Account state plus the user's referral link
type MeResponse struct {
	Account      *models.UserAccount `json:"account"`
	ReferralLink string              `json:"referral_link"`
	ReferralUsed bool                `json:"referral_used"`
}

// @Summary Get current account
// @Description Get or create the caller's account from Telegram init data. A ref_<id> start param credits the referrer once.
// @Tags ledger
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} MeResponse "Account data"
// @Failure 401 {object} middleware.ErrorResponse "Missing init data"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /ledger/me [get]
func (h *Handler) getMe(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}
	ident := identityFrom(user)

	account, err := h.service.InitUser(c.Request.Context(), ident)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	referralUsed := false
	if startParam := c.GetString(middleware.StartParamCtxKey); startParam != "" {
		referralUsed, err = h.service.HandleStartParam(c.Request.Context(), ident, startParam)
		if err != nil {
			middleware.RespondError(c, apperrors.From(err))
			return
		}
	}

	c.JSON(http.StatusOK, MeResponse{
		Account:      account,
		ReferralLink: h.service.ReferralLink(h.botUsername, h.appName, user.ID),
		ReferralUsed: referralUsed,
	})
}

// ReferralsResponse lists invited friends
// @Description Referral records with aggregate stats
type ReferralsResponse struct {
	Referrals []models.ReferralRecord `json:"referrals"`
	Stats     *models.ReferralStats   `json:"stats"`
}

// @Summary List referrals
// @Description List the caller's invited friends and aggregate referral earnings
// @Tags ledger
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} ReferralsResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /ledger/referrals [get]
func (h *Handler) listReferrals(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	referrals, stats, err := h.service.ListReferrals(c.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, ReferralsResponse{Referrals: referrals, Stats: stats})
}

// UpdateBalanceRequest is the admin balance adjustment
// @Description Manual balance adjustment for a user
type UpdateBalanceRequest struct {
	UserID    int64   `json:"user_id" binding:"required" example:"123456789"`
	Currency  string  `json:"currency" binding:"required" example:"noz"`
	Amount    float64 `json:"amount" binding:"required" example:"1.5"`
	Direction string  `json:"direction" binding:"required" example:"credit"`
}

// @Summary Adjust a balance
// @Description Credit or debit a user's balance. Admin only.
// @Tags ledger
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param adjustment body UpdateBalanceRequest true "Adjustment"
// @Success 200 {object} models.UserAccount
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 403 {object} middleware.ErrorResponse "Not an admin"
// @Failure 422 {object} middleware.ErrorResponse "Insufficient funds"
// @Router /ledger/balance [post]
func (h *Handler) updateBalance(c *gin.Context) {
	var req UpdateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	account, err := h.service.UpdateBalance(
		c.Request.Context(),
		req.UserID,
		models.BalanceKind(req.Currency),
		req.Amount,
		models.Direction(req.Direction),
	)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, account)
}

// AdEligibilityResponse describes the daily ad gate
// @Description Whether the caller may watch a rewarded ad now
type AdEligibilityResponse struct {
	CanWatch    bool   `json:"can_watch"`
	Reward      int64  `json:"reward"`
	NextWatchAt string `json:"next_watch_at,omitempty"`
}

// @Summary Check ad eligibility
// @Description Report whether the caller may watch a rewarded ad today
// @Tags ledger
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} AdEligibilityResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /ledger/ads/eligibility [get]
func (h *Handler) adEligibility(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	canWatch, err := h.service.CanWatchAd(c.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	resp := AdEligibilityResponse{CanWatch: canWatch, Reward: h.service.AdWatchReward()}
	if !canWatch {
		resp.NextWatchAt = h.service.NextAdWatch().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// WatchAdResponse is the result of a completed ad watch
// @Description Reward credited after the ad finished
type WatchAdResponse struct {
	Rewarded bool  `json:"rewarded"`
	Reward   int64 `json:"reward"`
}

// @Summary Watch a rewarded ad
// @Description Run an ad through the provider and credit the daily reward on completion
// @Tags ledger
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} WatchAdResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 409 {object} middleware.ErrorResponse "Already watched today"
// @Failure 502 {object} middleware.ErrorResponse "Provider failed"
// @Router /ledger/ads/watch [post]
func (h *Handler) watchAd(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	canWatch, err := h.service.CanWatchAd(c.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}
	if !canWatch {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeAdCooldown, "Daily ad already watched. Come back tomorrow"))
		return
	}

	if err := h.ads.Show(c.Request.Context(), user.ID); err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	reward := h.service.AdWatchReward()
	if err := h.service.RecordAdWatch(c.Request.Context(), user.ID, reward); err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, WatchAdResponse{Rewarded: true, Reward: reward})
}

// WithdrawalCheckRequest asks whether an amount can be withdrawn
// @Description Withdrawal eligibility query
type WithdrawalCheckRequest struct {
	Currency string  `json:"currency" binding:"required" example:"noz"`
	Amount   float64 `json:"amount" binding:"required" example:"0.05"`
}

// @Summary Check withdrawal eligibility
// @Description Report whether the amount clears the conversion minimum and the caller's balance
// @Tags ledger
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param query body WithdrawalCheckRequest true "Eligibility query"
// @Success 200 {object} models.Eligibility
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /ledger/withdrawals/check [post]
func (h *Handler) checkWithdrawal(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	var req WithdrawalCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	eligibility, err := h.service.CheckWithdrawalEligibility(c.Request.Context(), user.ID, models.BalanceKind(req.Currency), req.Amount)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, eligibility)
}

// WithdrawalRequestBody submits a withdrawal
// @Description Withdrawal submission; destination is required for KFCY unless a wallet is bound
type WithdrawalRequestBody struct {
	Currency    string  `json:"currency" binding:"required" example:"kfcy"`
	Amount      float64 `json:"amount" binding:"required" example:"100000"`
	Destination string  `json:"destination,omitempty"`
}

// @Summary Request a withdrawal
// @Description Debit the balance and queue a withdrawal request for processing
// @Tags ledger
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param withdrawal body WithdrawalRequestBody true "Withdrawal"
// @Success 200 {object} models.WithdrawalRequest
// @Failure 400 {object} middleware.ErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 422 {object} middleware.ErrorResponse "Below minimum or insufficient funds"
// @Router /ledger/withdrawals [post]
func (h *Handler) requestWithdrawal(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	var req WithdrawalRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	withdrawal, err := h.service.RequestWithdrawal(c.Request.Context(), user.ID, models.BalanceKind(req.Currency), req.Amount, req.Destination)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, withdrawal)
}

// @Summary List withdrawals
// @Description List the caller's withdrawal requests, oldest first
// @Tags ledger
// @Produce json
// @Security TelegramInitData
// @Success 200 {array} models.WithdrawalRequest
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /ledger/withdrawals [get]
func (h *Handler) listWithdrawals(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	withdrawals, err := h.service.ListWithdrawals(c.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

// @Summary Reset account
// @Description Wipe the caller's balances, referrals and history
// @Tags ledger
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} map[string]bool
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /ledger/reset [post]
func (h *Handler) reset(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	if err := h.service.ResetAll(c.Request.Context(), user.ID); err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
