package settingsapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"lms-backend/internal/api/httputil"
	domainsettings "lms-backend/internal/domain/settings"
	"lms-backend/internal/settings"
)

type Handler struct {
	store *settings.Store
}

func NewHandler(store *settings.Store) *Handler {
	return &Handler{store: store}
}

type UpdateSettingInput struct {
	Value json.RawMessage `json:"value" binding:"required"`
	Type  string          `json:"type"`
}

// GetSettings returns the billing guardrails with defaults applied, the same
// values the settlement engine reads.
func (h *Handler) GetSettings(c *gin.Context) {
	rails, err := h.store.Guardrails(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		domainsettings.KeyFees:               rails.Fees,
		domainsettings.KeyMaxDebit:           rails.MaxDebit,
		domainsettings.KeyMaxNegativeBalance: rails.MaxNegativeBalance,
	})
}

// UpdateSetting validates and writes one setting. The next settlement sees
// the new value.
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")

	var input UpdateSettingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	typ := domainsettings.ValueType(input.Type)
	if typ == "" {
		typ = domainsettings.TypeNumber
	}

	if err := h.store.Set(c.Request.Context(), key, datatypes.JSON(input.Value), typ); err != nil {
		httputil.Error(c, err)
		return
	}

	setting, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load setting"})
		return
	}

	c.JSON(http.StatusOK, setting)
}
