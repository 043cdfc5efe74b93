package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"loja/internal/handlers"
	"loja/internal/middleware"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/internal/services"
	"loja/pkg/pagbank"
	"loja/pkg/pix"
	"loja/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_URL", "loja.db")
	viper.SetDefault("JWT_SECRET", "change-me-in-production")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("PAYMENT_GATEWAY", "") // pagbank, pix; empty picks by available credentials
	viper.SetDefault("PAGBANK_TOKEN", "")
	viper.SetDefault("PAGBANK_SANDBOX", true)
	viper.SetDefault("PIX_KEY", "")
	viper.SetDefault("PIX_KEY_TYPE", "email")
	viper.SetDefault("PIX_BANK_NAME", "")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Database ---
	db, err := openDatabase(viper.GetString("DATABASE_URL"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if rabbitMQURL := viper.GetString("RABBITMQ_URL"); rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set, order events disabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Payment backend ---
	pagbankClient := pagbank.NewClient(pagbank.Config{
		Token:   viper.GetString("PAGBANK_TOKEN"),
		Sandbox: viper.GetBool("PAGBANK_SANDBOX"),
	})
	gateway, err := selectGateway(pagbankClient)
	if err != nil {
		log.Fatalf("Failed to configure payment backend: %v", err)
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	productService := services.NewProductService(productRepo)
	categoryService := services.NewCategoryService(categoryRepo, productRepo)
	cartService := services.NewCartService(productRepo)
	checkoutService := services.NewCheckoutService(orderRepo, productRepo, addressRepo, mqClient)
	paymentService := services.NewPaymentService(orderRepo, userRepo, addressRepo, gateway)
	orderService := services.NewOrderService(orderRepo, mqClient)
	webhookService := services.NewWebhookService(orderRepo, pagbankClient, mqClient)

	// --- Session store (cart) ---
	store := session.New(session.Config{
		Expiration:     7 * 24 * time.Hour,
		CookieHTTPOnly: true,
	})

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	storeHandler := handlers.NewStoreHandler(productService, categoryService)
	cartHandler := handlers.NewCartHandler(cartService, store)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, paymentService, orderService, store)
	addressHandler := handlers.NewAddressHandler(addressRepo)
	webhookHandler := handlers.NewWebhookHandler(webhookService, viper.GetString("WEBHOOK_SECRET"))
	adminOrderHandler := handlers.NewAdminOrderHandler(orderService)
	adminProductHandler := handlers.NewAdminProductHandler(productService, categoryService)

	// --- Fiber App ---
	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")

	// Public routes: catalog, cart, auth, gateway callbacks.
	authHandler.RegisterRoutes(apiV1)
	storeHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1)
	webhookHandler.RegisterRoutes(apiV1)

	// Authenticated routes.
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	authHandler.RegisterProtectedRoutes(protected)
	addressHandler.RegisterRoutes(protected)
	checkoutHandler.RegisterRoutes(protected)

	// Admin routes.
	admin := protected.Group("/admin", middleware.AdminRequired())
	adminOrderHandler.RegisterRoutes(admin)
	adminProductHandler.RegisterRoutes(admin)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- RabbitMQ consumer ---
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for order events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeOrderEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase picks the driver from the DSN: postgres URLs go to the
// postgres driver, anything else is treated as a SQLite file path.
func openDatabase(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
}

// selectGateway picks the payment backend from configuration. An explicit
// PAYMENT_GATEWAY wins; otherwise a PagBank token selects PagBank and a
// configured Pix key selects static Pix.
func selectGateway(pagbankClient *pagbank.Client) (services.PaymentGateway, error) {
	baseURL := viper.GetString("BASE_URL")

	choice := strings.ToLower(viper.GetString("PAYMENT_GATEWAY"))
	if choice == "" {
		if viper.GetString("PAGBANK_TOKEN") != "" {
			choice = "pagbank"
		} else {
			choice = "pix"
		}
	}

	switch choice {
	case "pagbank":
		return services.NewPagBankGateway(pagbankClient, baseURL), nil
	case "pix":
		generator, err := pix.NewGenerator(pix.Config{
			Key:      viper.GetString("PIX_KEY"),
			KeyType:  viper.GetString("PIX_KEY_TYPE"),
			BankName: viper.GetString("PIX_BANK_NAME"),
		})
		if err != nil {
			return nil, err
		}
		return services.NewPixGateway(generator), nil
	default:
		log.Fatalf("Unknown PAYMENT_GATEWAY %q", choice)
		return nil, nil
	}
}
