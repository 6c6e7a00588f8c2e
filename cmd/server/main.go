package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/tranqv/restaurant-pos/internal/broker"
	"github.com/tranqv/restaurant-pos/internal/config"
	"github.com/tranqv/restaurant-pos/internal/database"
	"github.com/tranqv/restaurant-pos/internal/handler"
	"github.com/tranqv/restaurant-pos/internal/queue"
	"github.com/tranqv/restaurant-pos/internal/repository"
	"github.com/tranqv/restaurant-pos/internal/router"
	"github.com/tranqv/restaurant-pos/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, running without cache and rate limiting")
	}

	customers := repository.NewCustomerRepo(db)
	products := repository.NewProductRepo(db)
	payments := repository.NewPaymentMethodRepo(db)
	orders := repository.NewOrderRepo(db, customers)
	tables := repository.NewTableRepo(db)

	events := broker.NewMemory()
	orderSvc := service.NewOrderService(customers, products, payments, orders, tables, events, service.PublishOrderCreated)

	// The audit consumer drains the orders.created queue into the order
	// log.  It reconnects on its own; a dead broker never blocks orders.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Orders:    handler.NewOrderHandler(orderSvc, orders, customers),
		Tables:    handler.NewTableHandler(tables, events),
		Customers: handler.NewCustomerHandler(customers),
		Catalog:   handler.NewCatalogHandler(products),
		Live:      handler.NewLiveHandler(events),
	}, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
