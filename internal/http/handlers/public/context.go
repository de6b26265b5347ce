package public

import (
	handlershared "github.com/salonlink/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getStylistID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "stylist_id", "error.stylist_id_invalid", "error.stylist_id_type_invalid")
}
