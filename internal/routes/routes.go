package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"equipment-system/internal/controllers"
	"equipment-system/internal/repositories"
	"equipment-system/internal/services"
	"equipment-system/pkg/config"
	"equipment-system/pkg/eventbus"
	"equipment-system/pkg/middleware"
	"equipment-system/pkg/service"
)

// InitRouter собирает весь граф зависимостей: репозитории -> сервисы ->
// контроллеры -> маршруты. Все маршруты закрыты JWT-аутентификацией.
func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	bus *eventbus.Bus,
	cfg *config.Config,
	logger *zap.Logger,
) {
	logger.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	txManager := repositories.NewTxManager(dbConn)

	// --- РЕПОЗИТОРИИ ---
	unitRepo := repositories.NewEquipmentUnitRepository(dbConn)
	receiptRepo := repositories.NewReceiptRepository(dbConn)
	allocRepo := repositories.NewAllocationRepository(dbConn)
	groupRepo := repositories.NewEquipmentGroupRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- СЕРВИСЫ ---
	groupService := services.NewGroupService(groupRepo, cacheRepo, cfg.Cache.GroupLookupTTL, logger)
	reservationService := services.NewReservationService(txManager, unitRepo, receiptRepo, logger)
	receiptService := services.NewReceiptService(dbConn, receiptRepo, unitRepo, allocRepo, reservationService, bus, logger)
	borrowService := services.NewBorrowService(dbConn, receiptRepo, unitRepo, allocRepo, groupService, bus, logger)
	transferService := services.NewTransferService(dbConn, receiptRepo, unitRepo, allocRepo, groupService, bus, logger)
	liquidationService := services.NewLiquidationService(dbConn, receiptRepo, unitRepo, allocRepo, bus, logger)
	importService := services.NewImportService(dbConn, receiptRepo, unitRepo, groupService, bus, logger)
	equipmentService := services.NewEquipmentService(unitRepo, allocRepo, logger)

	// --- КОНТРОЛЛЕРЫ ---
	receiptCtrl := controllers.NewReceiptController(receiptService, logger)
	borrowCtrl := controllers.NewBorrowController(borrowService, logger)
	transferCtrl := controllers.NewTransferController(transferService, logger)
	liquidationCtrl := controllers.NewLiquidationController(liquidationService, logger)
	importCtrl := controllers.NewImportController(importService, logger)
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, groupService, reservationService, logger)

	// --- МАРШРУТЫ ---
	secureGroup := api.Group("", authMW.Auth)

	runReceiptRouter(secureGroup, receiptCtrl, borrowCtrl, transferCtrl, liquidationCtrl, importCtrl)
	runEquipmentRouter(secureGroup, equipmentCtrl)

	logger.Info("InitRouter: Создание маршрутов завершено")
}
