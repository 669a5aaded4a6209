package http

import (
	"net/http"

	apperrors "noz-miniapp-backend/internal/common/errors"
	"noz-miniapp-backend/internal/common/middleware"
	"noz-miniapp-backend/internal/features/tonwallet/models"
	"noz-miniapp-backend/internal/features/tonwallet/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.Service
}

func NewHandler(service *service.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	tonwallet := router.Group("/tonwallet")
	{
		tonwallet.GET("/payload", h.GeneratePayload)
		tonwallet.POST("/proof", h.SubmitProof)
		tonwallet.GET("/wallet", h.GetWallet)
	}
}

// @Summary Issue proof payload
// @Description Generate a one-time payload for TON Connect proof
// @Tags tonwallet
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.PayloadResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /tonwallet/payload [get]
func (h *Handler) GeneratePayload(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	resp, err := h.service.GeneratePayload(c.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Submit wallet proof
// @Description Verify a TON Connect proof and bind the wallet to the user
// @Tags tonwallet
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param proof body models.ProofRequest true "TON Connect proof"
// @Success 200 {object} models.ProofResponse
// @Failure 400 {object} middleware.ErrorResponse "Invalid proof"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /tonwallet/proof [post]
func (h *Handler) SubmitProof(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	var req models.ProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	address, err := h.service.VerifyAndBind(c.Request.Context(), user.ID, &req)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, models.ProofResponse{Success: true, Address: address})
}

// @Summary Get bound wallet
// @Description Return the TON wallet currently bound to the user
// @Tags tonwallet
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.WalletResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /tonwallet/wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		middleware.RespondError(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Unauthorized"))
		return
	}

	address, err := h.service.Wallet(c.Request.Context(), user.ID)
	if err != nil {
		middleware.RespondError(c, apperrors.From(err))
		return
	}

	c.JSON(http.StatusOK, models.WalletResponse{Address: address, Bound: address != ""})
}
