package api

import (
	"net/http" // HTTP status codes

	"asso_funds/internal/auth"       // Credential checks
	"asso_funds/internal/domain"     // Role names
	"asso_funds/internal/middleware" // Auth middleware
	"asso_funds/internal/service"    // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterRoutes mounts the API under /api and the liveness probe at /healthz
func RegisterRoutes(r *gin.Engine, users *service.Users, txs *service.Transactions, guard *auth.Guard) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protect := middleware.JWTAuthMiddleware(guard)                                  // Bearer token required
	treasurer := middleware.RoleMiddleware(domain.RoleTreasurer)                    // Treasurer only
	board := middleware.RoleMiddleware(domain.RolePresident, domain.RoleController) // President or controller
	officers := middleware.RoleMiddleware(domain.RoleTreasurer, domain.RolePresident, domain.RoleController)

	// User routes
	userGroup := r.Group("/api/users")
	userGroup.POST("/register", RegisterHandler(users))                      // Registration endpoint
	userGroup.POST("/login", LoginHandler(users))                            // Login endpoint
	userGroup.PUT("/change-password", protect, ChangePasswordHandler(users)) // Password change endpoint
	userGroup.GET("", protect, officers, ListMembersHandler(users))          // Member directory

	// Transaction routes
	txGroup := r.Group("/api/transactions")
	txGroup.GET("/leaderboard", LeaderboardHandler(txs)) // Public ranking
	txGroup.POST("", protect, CreateTransactionHandler(txs))
	txGroup.GET("", protect, ListTransactionsHandler(txs))
	txGroup.GET("/entree/:userId", protect, UserIncomeHandler(txs, guard))
	txGroup.GET("/pending-treasurer", protect, treasurer, PendingTreasurerHandler(txs))
	txGroup.PUT("/validate-treasurer/:id", protect, treasurer, ValidateTreasurerHandler(txs))
	txGroup.PUT("/reject-treasurer/:id", protect, treasurer, RejectTreasurerHandler(txs))
	txGroup.POST("/create-expense", protect, treasurer, CreateExpenseHandler(txs))
	txGroup.GET("/pending-expenses", protect, board, PendingExpensesHandler(txs))
	txGroup.PUT("/validate/:id", protect, board, ValidateExpenseHandler(txs))
}
