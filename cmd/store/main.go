// StoreService 主程序
// 功能：商品目录、购物车解析与合并、结账聚合、运费报价、下单与发运标签
// 架构：基于 DDD + Gin + GORM + Redis + Kafka（事务性发件箱）
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	cartapp "github.com/wyfcoding/onlinestore/internal/cart/application"
	cartmysql "github.com/wyfcoding/onlinestore/internal/cart/infrastructure/persistence/mysql"
	carthttp "github.com/wyfcoding/onlinestore/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/onlinestore/internal/catalog/application"
	catalogmysql "github.com/wyfcoding/onlinestore/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/onlinestore/internal/catalog/infrastructure/storage"
	cataloghttp "github.com/wyfcoding/onlinestore/internal/catalog/interfaces/http"
	checkoutapp "github.com/wyfcoding/onlinestore/internal/checkout/application"
	checkouthttp "github.com/wyfcoding/onlinestore/internal/checkout/interfaces/http"
	orderapp "github.com/wyfcoding/onlinestore/internal/order/application"
	ordermysql "github.com/wyfcoding/onlinestore/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/onlinestore/internal/order/interfaces/http"
	shipmentapp "github.com/wyfcoding/onlinestore/internal/shipment/application"
	"github.com/wyfcoding/onlinestore/internal/shipment/infrastructure/carrier"
	shipmenthttp "github.com/wyfcoding/onlinestore/internal/shipment/interfaces/http"
	shippingapp "github.com/wyfcoding/onlinestore/internal/shipping/application"
	shippingmysql "github.com/wyfcoding/onlinestore/internal/shipping/infrastructure/persistence/mysql"
	shippinghttp "github.com/wyfcoding/onlinestore/internal/shipping/interfaces/http"
	"github.com/wyfcoding/onlinestore/pkg/cache"
	"github.com/wyfcoding/onlinestore/pkg/config"
	"github.com/wyfcoding/onlinestore/pkg/db"
	"github.com/wyfcoding/onlinestore/pkg/logger"
	"github.com/wyfcoding/onlinestore/pkg/metrics"
	"github.com/wyfcoding/onlinestore/pkg/middleware"
	"github.com/wyfcoding/onlinestore/pkg/mq"
	"github.com/wyfcoding/onlinestore/pkg/ratelimit"
	"github.com/wyfcoding/onlinestore/pkg/utils"

	cartdomain "github.com/wyfcoding/onlinestore/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/onlinestore/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/onlinestore/internal/order/domain"
	shippingdomain "github.com/wyfcoding/onlinestore/internal/shipping/domain"
)

func main() {
	// 1. 加载配置
	configPath := config.GetEnv("APP_CONFIG", "configs/store/config.toml")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting StoreService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库（容器启动时 MySQL 可能尚未就绪，退避重连）
	var database *db.DB
	if err := utils.RetryWithBackoff(5, 500*time.Millisecond, 5*time.Second, func() error {
		var dbErr error
		database, dbErr = db.Init(db.Config{
			Driver:             cfg.Database.Driver,
			DSN:                cfg.Database.DSN,
			MaxOpenConns:       cfg.Database.MaxOpenConns,
			MaxIdleConns:       cfg.Database.MaxIdleConns,
			ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
			LogEnabled:         cfg.Database.LogEnabled,
			SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
		})
		return dbErr
	}); err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&catalogdomain.Product{}, &catalogdomain.ProductVariant{},
		&cartdomain.Cart{}, &cartdomain.CartItem{},
		&shippingdomain.ShippingZone{}, &shippingdomain.ShippingMethod{}, &shippingdomain.Carrier{},
		&orderdomain.Order{}, &orderdomain.OrderItem{}, &orderdomain.Address{}, &orderdomain.OutboxMessage{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database schema", "error", err)
	}

	// 4. 初始化 Redis
	var redisCache *cache.RedisCache
	if err := utils.Retry(3, time.Second, func() error {
		var cacheErr error
		redisCache, cacheErr = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		return cacheErr
	}); err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 5. 初始化限流器
	rateLimiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())

	// 6. 初始化 Kafka 生产者与死信队列
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		GroupID:      cfg.Kafka.GroupID,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()
	dlq := mq.NewDeadLetterQueue(producer, cfg.Kafka.DeadLetterTopic)

	consumer, err := mq.NewConsumer(mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
	}, cfg.Kafka.OrderTopic)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka consumer", "error", err)
	}
	defer consumer.Close()

	// 7. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)
	if err := metricsInstance.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	db.SetQueryObserver(func(elapsed time.Duration) {
		metricsInstance.DBQueriesTotal.Inc()
		metricsInstance.DBQueryDuration.Observe(elapsed.Seconds())
	})

	// 8. 初始化仓储
	productRepo := catalogmysql.NewProductRepository(database.DB)
	cartRepo := cartmysql.NewCartRepository(database.DB)
	zoneRepo := shippingmysql.NewCachedZoneRepository(shippingmysql.NewZoneRepository(database.DB), redisCache)
	carrierRepo := shippingmysql.NewCarrierRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	addressRepo := ordermysql.NewAddressRepository(database.DB)
	outboxRepo := ordermysql.NewOutboxRepository(database.DB)

	// 9. 初始化应用服务
	imageStore := storage.NewLocalImageStore(cfg.Storage.ImageRoot)
	catalogService := catalogapp.NewCatalogService(productRepo, imageStore, metricsInstance)

	mergeEngine := cartapp.NewMergeEngine(cartmysql.NewTxRunner(database), metricsInstance)
	cartService := cartapp.NewCartService(cartRepo, productRepo, mergeEngine)

	aggregator := checkoutapp.NewAggregator(cartService, productRepo, metricsInstance)

	rateEngine := shippingapp.NewRateEngine(zoneRepo)
	shippingService := shippingapp.NewShippingService(zoneRepo, carrierRepo)

	numberGenerator := orderapp.NewNumberGenerator(cfg.Order.NumberPrefix, cfg.Order.NumberSeed, orderRepo)
	orderService := orderapp.NewOrderService(
		orderRepo, addressRepo, aggregator, rateEngine, numberGenerator,
		ordermysql.NewTxRunner(database), cfg.Kafka.OrderTopic, metricsInstance,
	)
	addressService := orderapp.NewAddressService(addressRepo)

	carrierClient := carrier.NewClient(cfg.Carrier)
	labelService := shipmentapp.NewLabelService(orderRepo, carrierClient, cfg.StoreAddress, metricsInstance)

	// 10. 启动发件箱中继与订单确认监听
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	relay := orderapp.NewOutboxRelay(outboxRepo, producer, dlq,
		time.Duration(cfg.Kafka.RetryBackoff)*time.Millisecond*10, cfg.Kafka.MaxRetries)
	go relay.Run(relayCtx)
	listener := orderapp.NewConfirmationListener(consumer, dlq)
	go listener.Run(relayCtx)

	// 11. 创建 HTTP 服务器
	router := gin.New()
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.MetricsMiddleware(metricsInstance))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimitMiddleware(rateLimiter, cfg.RateLimit))
	}

	cataloghttp.NewCatalogHandler(catalogService).RegisterRoutes(router)
	carthttp.NewCartHandler(cartService).RegisterRoutes(router)
	checkouthttp.NewCheckoutHandler(aggregator, rateEngine).RegisterRoutes(router)
	shippinghttp.NewShippingHandler(rateEngine, shippingService, aggregator).RegisterRoutes(router)
	orderhttp.NewOrderHandler(orderService, addressService).RegisterRoutes(router)
	shipmenthttp.NewShipmentHandler(labelService).RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(metricsInstance.Handler()))
	}
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 12. 启动 HTTP 服务器
	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()

	// 13. 优雅关停
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info(ctx, "Shutting down StoreService")
	stopRelay()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown error", "error", err)
	}

	logger.Info(ctx, "StoreService stopped")
}
