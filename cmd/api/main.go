package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/smartrestaurant/backoffice.git/internal/accounts"
	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/config"
	"github.com/smartrestaurant/backoffice.git/internal/httpx"
	"github.com/smartrestaurant/backoffice.git/internal/inventory"
	kafkax "github.com/smartrestaurant/backoffice.git/internal/kafka"
	"github.com/smartrestaurant/backoffice.git/internal/orders"
	"github.com/smartrestaurant/backoffice.git/internal/payments"
	"github.com/smartrestaurant/backoffice.git/internal/postgres"
	"github.com/smartrestaurant/backoffice.git/internal/redisx"
	"github.com/smartrestaurant/backoffice.git/internal/reservations"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	emailProd := kafkax.NewProducer(cfg.KafkaBrokers, kafkax.TopicNotificationEmail, 1024)
	smsProd := kafkax.NewProducer(cfg.KafkaBrokers, kafkax.TopicNotificationSMS, 1024)
	deadProd := kafkax.NewProducer(cfg.KafkaBrokers, kafkax.TopicPaymentDeadLetter, 256)
	emailProd.Start(ctx)
	smsProd.Start(ctx)
	deadProd.Start(ctx)

	// Accounts & auth
	acctRepo := &accounts.Repo{DB: db}
	hasher := accounts.NewBcrypt(0)
	sessions := &auth.RedisSessions{RDB: rdb, TTL: cfg.SessionTTL}
	codesRepo := &auth.CodesRepo{DB: db}
	codes := auth.NewCodeManager(codesRepo, &auth.RedisLimiter{RDB: rdb})
	sender := &auth.KafkaCodeSender{Email: emailProd, SMS: smsProd, ServiceName: cfg.ServiceName}
	tokens := &auth.TokenProvider{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL}
	machine := auth.NewMachine(acctRepo, hasher, codes, sender, sessions, tokens, log)

	// Expired codes are refused on consume; this sweep just keeps the table
	// from growing without bound.
	go func() {
		tick := time.NewTicker(time.Hour)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				n, err := codesRepo.PurgeExpired(ctx, time.Now().UTC())
				if err != nil {
					log.Warn("expired code purge failed", zap.Error(err))
					continue
				}
				if n > 0 {
					log.Info("purged expired codes", zap.Int64("count", n))
				}
			}
		}
	}()

	// Inventory & orders
	ledger := &inventory.Ledger{DB: db}
	pipeline := orders.NewPipeline(db, ledger, log)

	// Payments
	paySvc := &payments.Service{
		Gateway:     payments.NewMpesaClient(cfg.Mpesa),
		Store:       &payments.TxRepo{DB: db, Orders: pipeline},
		Orders:      pipeline,
		DeadLetter:  deadProd,
		Log:         log,
		ServiceName: cfg.ServiceName,
	}

	// Reservations
	resRepo := &reservations.Repo{DB: db}

	// Router & handlers
	router := httpx.NewRouter()
	(&httpx.AuthHandler{Machine: machine, Accounts: acctRepo, Hasher: hasher, Sessions: sessions, Tokens: tokens}).Register(router)
	(&httpx.InventoryHandler{Ledger: ledger, Sessions: sessions}).Register(router)
	(&httpx.OrdersHandler{Pipeline: pipeline, Cache: &orders.StatusCache{RDB: rdb}, Sessions: sessions}).Register(router)
	(&httpx.PaymentsHandler{Service: paySvc, Sessions: sessions, Log: log}).Register(router)
	(&httpx.ReservationsHandler{Repo: resRepo, Sessions: sessions}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	emailProd.Close()
	smsProd.Close()
	deadProd.Close()
	cancel()
	emailProd.WaitClosed()
	smsProd.WaitClosed()
	deadProd.WaitClosed()
}
