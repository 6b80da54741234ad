package middlewares

import (
	"net/http"

	"github.com/geocoder89/tasktracker/internal/observability"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/gin-gonic/gin"
)

// RequireAction runs the policy for action. Anonymous callers go to the
// login page; authenticated callers that are denied go back to "/".
func RequireAction(action policy.Action, prom *observability.Prom) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := policy.Authorize(IdentityFromContext(c), action)
		if d.Allowed {
			c.Next()
			return
		}

		prom.ObserveDenied(string(action), string(d.Reason))

		target := "/"
		if d.Reason == policy.ReasonUnauthenticated {
			target = LoginPath
		}
		c.Redirect(http.StatusSeeOther, target)
		c.Abort()
	}
}
