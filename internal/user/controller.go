package user

import (
	"errors"
	"net/http"
	"strconv"

	"config_client/internal/observability"
	"config_client/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserController exposes the read-only user endpoints.
// It keeps no per-request state and may serve requests concurrently.
type UserController struct {
	repo    UserRepositoryInterface
	metrics *observability.Metrics
}

func NewUserController(repo UserRepositoryInterface, metrics *observability.Metrics) *UserController {
	return &UserController{
		repo:    repo,
		metrics: metrics,
	}
}

type userURI struct {
	ID string `uri:"id" binding:"required,numeric"`
}

// SetupRoutes registers the user routes on r
func (uc *UserController) SetupRoutes(r gin.IRouter) {
	users := r.Group("/users")
	{
		users.GET("", uc.ListUsers)
		users.GET("/:id", uc.GetUser)
	}
}

// ListUsers handles GET /users
func (uc *UserController) ListUsers(c *gin.Context) {
	users, err := uc.repo.FindAll(c.Request.Context())
	if err != nil {
		uc.metrics.ObserveUserLookup("find_all", "error")
		response.InternalServerError(c, "Failed to get users", err)
		return
	}

	if users == nil {
		users = []*User{}
	}

	uc.metrics.ObserveUserLookup("find_all", "found")
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	var uri userURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.ValidationError(c, "Invalid user ID", err)
		return
	}

	// numeric still admits fractions and values beyond int64
	id, err := strconv.ParseInt(uri.ID, 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid user ID")
		return
	}

	user, err := uc.repo.FindOne(c.Request.Context(), id)
	if err == nil && user == nil {
		err = ErrUserNotFound
	}
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			uc.metrics.ObserveUserLookup("find_one", "not_found")
			response.NotFound(c, "User not found")
			return
		}
		uc.metrics.ObserveUserLookup("find_one", "error")
		response.InternalServerError(c, "Failed to get user", err)
		return
	}

	uc.metrics.ObserveUserLookup("find_one", "found")
	c.JSON(http.StatusOK, user)
}
