package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"loanflow/internal/adapter/gateway/mpesa"
	httpadp "loanflow/internal/adapter/http"
	appmw "loanflow/internal/adapter/middleware"
	"loanflow/internal/adapter/repository/mysql"
	"loanflow/internal/adapter/sink"
	"loanflow/internal/amortize"
	"loanflow/internal/config"
	"loanflow/internal/infrastructure/cache"
	"loanflow/internal/infrastructure/db"
	loanUC "loanflow/internal/usecase/loan"
	paymentUC "loanflow/internal/usecase/payment"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	loans := mysql.NewLoanRepository(gdb)
	repayments := mysql.NewRepaymentRepository(gdb)
	borrowers := mysql.NewBorrowerRepository(gdb)
	txn := mysql.NewGormUoW(gdb)

	calc := amortize.NewCalculator(cfg.Policy)
	auditSink := sink.NewDBSink(gdb)
	gw := mpesa.NewClient(cfg.Mpesa)

	loanUsecase := loanUC.NewUsecase(loans, repayments, borrowers, txn, calc, cfg.Policy, auditSink)
	paymentUsecase := paymentUC.NewUsecase(loans, repayments, borrowers, txn, gw, auditSink)

	h := httpadp.NewHealthHandler()
	loanHandler := httpadp.NewLoanHandler(loanUsecase)
	paymentHandler := httpadp.NewPaymentHandler(paymentUsecase)
	callbackHandler := httpadp.NewCallbackHandler(paymentUsecase)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	e.GET("/health", h.Health)
	// Provider webhook: public, no idempotency headers. Confirm() carries
	// its own replay protection.
	e.POST("/payments/mpesa/callback", callbackHandler.MpesaCallback)

	api := e.Group("", appmw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))
	api.POST("/loans", loanHandler.Apply)
	api.GET("/loans", loanHandler.List)
	api.GET("/loans/:loan_id", loanHandler.Get)
	api.POST("/loans/:loan_id/approve", loanHandler.Approve)
	api.POST("/loans/:loan_id/reject", loanHandler.Reject)
	api.POST("/loans/:loan_id/disburse", loanHandler.Disburse)
	api.POST("/loans/:loan_id/pay", paymentHandler.PayFlexible)
	api.GET("/borrowers/:borrower_id/loans", loanHandler.ListByBorrower)
	api.GET("/borrowers/:borrower_id/summary", loanHandler.Summary)
	api.GET("/repayments/:repayment_id", paymentHandler.GetInstallment)
	api.POST("/repayments/:repayment_id/pay", paymentHandler.Pay)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
