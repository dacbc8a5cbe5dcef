package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"shopfront/internal/auth"
	"shopfront/internal/service"
	"shopfront/internal/storage"
)

// Options carries the collaborators of Handler. Images may be nil, in which
// case image upload answers 503 and product details carry no image URL.
type Options struct {
	Users          service.UserService
	Products       service.ProductService
	Carts          service.CartService
	Authenticator  *auth.Authenticator
	Images         storage.Service
	ImagePrefix    string
	ImageURLExpiry time.Duration
	Logger         *logrus.Logger
	ServiceName    string
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users          service.UserService
	products       service.ProductService
	carts          service.CartService
	authn          *auth.Authenticator
	images         storage.Service
	imagePrefix    string
	imageURLExpiry time.Duration
	logger         *logrus.Logger
	serviceName    string
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		users:          opts.Users,
		products:       opts.Products,
		carts:          opts.Carts,
		authn:          opts.Authenticator,
		images:         opts.Images,
		imagePrefix:    opts.ImagePrefix,
		imageURLExpiry: opts.ImageURLExpiry,
		logger:         opts.Logger,
		serviceName:    opts.ServiceName,
	}
	if h.logger == nil {
		h.logger = logrus.New()
	}
	if h.imageURLExpiry <= 0 {
		h.imageURLExpiry = 15 * time.Minute
	}
	if h.serviceName == "" {
		h.serviceName = "shopfront"
	}
	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), metricsMiddleware(h.serviceName), corsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	user := router.Group("/user")
	{
		user.POST("/register", h.register)
		user.POST("/login", h.login)
	}

	product := router.Group("/product")
	{
		product.POST("/list", h.require(auth.AnyRole), h.listProducts)
		product.POST("/add", h.require(auth.SellerOnly), h.addProduct)
		product.DELETE("/delete/:id", h.require(auth.SellerOnly), h.deleteProduct)
		product.PUT("/edit/:id", h.require(auth.SellerOnly), h.editProduct)
		product.GET("/detail/:id", h.require(auth.AnyRole), h.productDetail)
		product.POST("/seller/list", h.require(auth.SellerOnly), h.sellerList)
		product.POST("/buyer/list", h.require(auth.BuyerOnly), h.buyerList)
		product.POST("/image", h.require(auth.SellerOnly), h.uploadImage)
	}

	cart := router.Group("/cart")
	{
		cart.POST("/add/item", h.require(auth.BuyerOnly), h.addCartItem)
		cart.DELETE("/flush", h.require(auth.BuyerOnly), h.flushCart)
		cart.DELETE("/item/delete/:id", h.require(auth.BuyerOnly), h.deleteCartItem)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// bindJSON decodes the request body into dst. Shape constraints are checked
// by the services.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return false
	}
	return true
}
