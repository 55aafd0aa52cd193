package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Parsing the price filter

	"asso_funds/internal/auth"       // Access rules
	"asso_funds/internal/domain"     // Importing domain models
	"asso_funds/internal/middleware" // Current user helpers
	"asso_funds/internal/service"    // Use cases

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for recording a transaction
type CreateTransactionRequest struct {
	Amount   float64 `json:"amount"`                  // Must be positive
	Reason   string  `json:"reason"`                  // Free text
	UserID   string  `json:"userId"`                  // Initiator, defaults to the caller
	Type     string  `json:"type" binding:"required"` // entrée or sortie
	Subtype  string  `json:"subtype"`                 // cotisation or collect, income only
	Donateur string  `json:"donateur"`                // Donor, or beneficiary for an expense
}

// Request struct for recording an expense
type CreateExpenseRequest struct {
	Amount      float64 `json:"amount" binding:"required"`      // Amount must be provided
	Reason      string  `json:"reason" binding:"required"`      // Reason must be provided
	Beneficiary string  `json:"beneficiary" binding:"required"` // Who receives the funds
}

// CreateTransactionHandler records an income, or an expense when the caller is a treasurer
func CreateTransactionHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransactionRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		typ, err := domain.ParseType(req.Type) // Normalise aliases
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
			return
		}
		caller := middleware.CurrentUser(c) // Set by JWTAuthMiddleware

		var t *domain.Transaction
		if typ == domain.TypeExpense {
			t, err = txs.CreateExpense(c.Request.Context(), caller, req.Amount, req.Reason, req.Donateur)
		} else {
			var subtype domain.Subtype
			if subtype, err = domain.ParseSubtype(req.Subtype); err != nil {
				respondError(c, err, "Failed to record transaction")
				return
			}
			t, err = txs.CreateIncome(c.Request.Context(), caller, service.IncomeInput{
				Amount:      req.Amount,
				Reason:      req.Reason,
				Donor:       req.Donateur,
				Subtype:     subtype,
				InitiatorID: req.UserID,
			})
		}
		if err != nil {
			respondError(c, err, "Failed to record transaction")
			return
		}
		c.JSON(http.StatusCreated, t) // Return the stored transaction
	}
}

// CreateExpenseHandler records an expense initiated by the calling treasurer
func CreateExpenseHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateExpenseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount, reason, and beneficiary are required"})
			return
		}
		t, err := txs.CreateExpense(c.Request.Context(), middleware.CurrentUser(c), req.Amount, req.Reason, req.Beneficiary)
		if err != nil {
			respondError(c, err, "Failed to record expense")
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Expense recorded", "transaction": t})
	}
}

// ValidateTreasurerHandler records a treasurer validation of an income
func ValidateTreasurerHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := txs.ApproveIncome(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to validate transaction")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction validated successfully", "transaction": t})
	}
}

// RejectTreasurerHandler records a treasurer rejection of an income
func RejectTreasurerHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := txs.RejectIncome(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to reject transaction")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction rejected successfully", "transaction": t})
	}
}

// ValidateExpenseHandler records the president or controller approval of an expense
func ValidateExpenseHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := txs.ApproveExpense(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
		if err != nil {
			respondError(c, err, "Failed to validate transaction")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction validated successfully", "transaction": t})
	}
}

// PendingExpensesHandler lists expenses still waiting for board approval
func PendingExpensesHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := txs.ListPendingExpenses(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch pending expenses")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// PendingTreasurerHandler lists income no treasurer has decided yet
func PendingTreasurerHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := txs.ListPendingTreasurerIncome(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch pending transactions")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// UserIncomeHandler lists the validated income of the user named in the path
func UserIncomeHandler(txs *service.Transactions, guard *auth.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("userId")
		if _, err := guard.AuthenticateByPathUser(c.Request.Context(), userID); err != nil {
			respondError(c, err, "Failed to fetch transactions")
			return
		}
		if !auth.CanViewUser(middleware.CurrentUser(c), userID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		list, err := txs.ListValidatedIncomeForUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err, "Failed to fetch transactions")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// ListTransactionsHandler returns the settled history filtered by the query string
func ListTransactionsHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f service.ListFilter
		if v := c.Query("type"); v != "" {
			typ, err := domain.ParseType(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction type"})
				return
			}
			f.Type = typ
		}
		if v := c.Query("price"); v != "" {
			amount, err := strconv.ParseFloat(v, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
				return
			}
			f.Amount = &amount
		}
		f.Reason = c.Query("reason")
		f.Date = c.Query("date")

		list, err := txs.ListTransactions(c.Request.Context(), f)
		if err != nil {
			respondError(c, err, "Failed to fetch transactions")
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// LeaderboardHandler ranks members by validated income
func LeaderboardHandler(txs *service.Transactions) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := txs.Leaderboard(c.Request.Context())
		if err != nil {
			respondError(c, err, "Failed to fetch leaderboard")
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}
