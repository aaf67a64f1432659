// Package router wires the HTTP routes for the marketplace API.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bazaar/backend/internal/infrastructure/auth"
	"github.com/bazaar/backend/internal/infrastructure/logger"
	"github.com/bazaar/backend/internal/interfaces/http/handler"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

// Handlers bundles the resource handlers wired into the router
type Handlers struct {
	System         *handler.SystemHandler
	Cart           *handler.CartHandler
	Checkout       *handler.CheckoutHandler
	Order          *handler.OrderHandler
	Vendor         *handler.VendorHandler
	Payout         *handler.PayoutHandler
	Reconciliation *handler.ReconciliationHandler
}

// Config holds router dependencies
type Config struct {
	Handlers    Handlers
	JWTService  *auth.JWTService
	Logger      *zap.Logger
	CORS        middleware.CORSConfig
	ServiceName string
	Tracing     bool
}

// Setup builds the gin engine with middleware and all API routes.
// Cart and checkout accept anonymous sessions via X-Session-Token;
// everything else under /api/v1 requires a valid bearer token.
func Setup(cfg Config) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(middleware.CORSWithConfig(cfg.CORS))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.Tracing,
	}))
	if cfg.Tracing {
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.GET("/health", cfg.Handlers.System.Health)

	api := engine.Group("/api/v1")

	registerStorefrontRoutes(api, cfg)
	registerOrderRoutes(api, cfg)
	registerVendorRoutes(api, cfg)
	registerSettlementRoutes(api, cfg)

	return engine
}

// registerStorefrontRoutes wires the cart and checkout surface
func registerStorefrontRoutes(api *gin.RouterGroup, cfg Config) {
	h := cfg.Handlers

	storefront := api.Group("")
	storefront.Use(middleware.OptionalJWTAuth(cfg.JWTService))
	{
		storefront.GET("/cart", h.Cart.Get)
		storefront.POST("/cart/items", h.Cart.AddItem)
		storefront.PUT("/cart/items/:itemId", h.Cart.UpdateQuantity)
		storefront.DELETE("/cart/items/:itemId", h.Cart.RemoveItem)
		storefront.POST("/cart/coupon", h.Cart.ApplyCoupon)
		storefront.DELETE("/cart/coupon", h.Cart.RemoveCoupon)
		storefront.POST("/checkout", h.Checkout.Checkout)
		storefront.POST("/orders/:id/retry-payment", h.Checkout.RetryPayment)
	}
}

// registerOrderRoutes wires order lifecycle operations
func registerOrderRoutes(api *gin.RouterGroup, cfg Config) {
	h := cfg.Handlers

	orders := api.Group("/orders")
	orders.Use(middleware.JWTAuth(cfg.JWTService))
	{
		orders.GET("", h.Order.ListMine)
		orders.GET("/:id", h.Order.GetByID)
		orders.GET("/number/:number", h.Order.GetByNumber)
		orders.POST("/:id/cancel", h.Order.Cancel)

		staff := orders.Group("")
		staff.Use(middleware.RequireRole(auth.RoleVendor, auth.RoleAdmin))
		{
			staff.PUT("/:id/status", h.Order.UpdateStatus)
			staff.PUT("/:id/items/:itemId/fulfillment", h.Order.UpdateItemFulfillment)
		}

		admin := orders.Group("")
		admin.Use(middleware.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/:id/refund", h.Order.Refund)
			admin.POST("/:id/assign-agent", h.Order.AssignAgent)
		}

		agents := orders.Group("")
		agents.Use(middleware.RequireRole(auth.RoleAgent, auth.RoleAdmin))
		{
			agents.POST("/:id/cod-collection", h.Order.MarkCodCollected)
		}
	}
}

// registerVendorRoutes wires vendor account management
func registerVendorRoutes(api *gin.RouterGroup, cfg Config) {
	h := cfg.Handlers

	// Vendor registration is open; everything else needs a token.
	api.POST("/vendors", h.Vendor.Register)

	vendors := api.Group("/vendors")
	vendors.Use(middleware.JWTAuth(cfg.JWTService))
	{
		vendors.GET("/:id", h.Vendor.GetByID)

		owners := vendors.Group("")
		owners.Use(middleware.RequireRole(auth.RoleVendor, auth.RoleAdmin))
		{
			owners.PUT("/:id/payout-account", h.Vendor.AttachPayoutAccount)
			owners.POST("/:id/kyc-document", h.Vendor.UploadKycDocument)
			owners.GET("/:id/kyc-document", h.Vendor.KycDocumentURL)
		}

		admin := vendors.Group("")
		admin.Use(middleware.RequireRole(auth.RoleAdmin))
		{
			admin.POST("/:id/approve", h.Vendor.Approve)
			admin.POST("/:id/suspend", h.Vendor.Suspend)
			admin.PUT("/:id/commission-rate", h.Vendor.UpdateCommissionRate)
		}
	}
}

// registerSettlementRoutes wires payouts, earnings and COD reconciliation
func registerSettlementRoutes(api *gin.RouterGroup, cfg Config) {
	h := cfg.Handlers

	payouts := api.Group("/payouts")
	payouts.Use(middleware.JWTAuth(cfg.JWTService))
	payouts.Use(middleware.RequireRole(auth.RoleAdmin))
	{
		payouts.POST("", h.Payout.CreateBatch)
		payouts.GET("/:id", h.Payout.GetByID)
		payouts.POST("/:id/process", h.Payout.Process)
		payouts.POST("/:id/cancel", h.Payout.Cancel)
	}

	vendorSettlement := api.Group("/vendors/:id")
	vendorSettlement.Use(middleware.JWTAuth(cfg.JWTService))
	vendorSettlement.Use(middleware.RequireRole(auth.RoleVendor, auth.RoleAdmin))
	{
		vendorSettlement.GET("/payouts", h.Payout.ListForVendor)
		vendorSettlement.GET("/earnings", h.Payout.ListEarnings)
	}

	reconciliations := api.Group("/reconciliations")
	reconciliations.Use(middleware.JWTAuth(cfg.JWTService))
	reconciliations.Use(middleware.RequireRole(auth.RoleAdmin))
	{
		reconciliations.GET("", h.Reconciliation.ListByStatus)
		reconciliations.POST("/generate", h.Reconciliation.Generate)
		reconciliations.POST("/generate-agent", h.Reconciliation.GenerateForAgent)
		reconciliations.POST("/:id/verify", h.Reconciliation.Verify)
		reconciliations.POST("/:id/dispute", h.Reconciliation.Dispute)
	}
}
