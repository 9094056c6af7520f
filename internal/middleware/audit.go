package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorpay-api/internal/models"
	"github.com/noah-isme/tutorpay-api/internal/repository"
)

// Audit records an audit trail entry after successful requests. Used for
// admin surfaces that mutate payroll state outside the finalize flow.
func Audit(repo *repository.AuditRepository, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var actorID *string
		if claims, ok := c.Get(ContextUserKey); ok {
			user := claims.(*models.JWTClaims)
			actorID = &user.UserID
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		_ = repo.Create(c.Request.Context(), &models.AuditLog{
			ActorID:   actorID,
			Action:    action,
			Resource:  resource,
			NewValues: body,
		})
	}
}
