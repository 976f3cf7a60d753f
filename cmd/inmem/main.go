// Package main runs the step-up authentication service without a database
// using in-memory repositories. This is useful for:
// - Quick development and testing
// - Demo/prototype environments
// - Learning the API without database setup
//
// Note: All data is lost when the server stops. For production, use
// cmd/stepup with PostgreSQL.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/stepup-auth/pkg/mobiletoken"
	"github.com/tendant/stepup-auth/pkg/msgcatalog"
	"github.com/tendant/stepup-auth/pkg/operation"
	operationapi "github.com/tendant/stepup-auth/pkg/operation/api"
	"github.com/tendant/stepup-auth/pkg/prefs"
	prefsapi "github.com/tendant/stepup-auth/pkg/prefs/api"
	"github.com/tendant/stepup-auth/pkg/relay"
	"github.com/tendant/stepup-auth/pkg/smsotp"
	"github.com/tendant/stepup-auth/pkg/stepflow"
)

type Config struct {
	AppConfig    app.AppConfig
	SmsOtpConfig smsotp.Config
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting in-memory step-up authentication service (no database required)")

	config := Config{}
	cleanenv.ReadEnv(&config)

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	stepRepo := stepflow.NewInMemStepDefinitionRepository(demoStepDefinitions())
	prefService := prefs.NewService(prefs.NewInMemPreferenceRepository())

	resolver := stepflow.NewService(stepRepo, prefService)
	if err := resolver.Reload(context.Background()); err != nil {
		slog.Error("Failed loading step definitions", "err", err)
		os.Exit(-1)
	}

	catalog, err := demoCatalog()
	if err != nil {
		slog.Error("Failed building message catalog", "err", err)
		os.Exit(-1)
	}
	otpService := smsotp.NewService(smsotp.NewInMemAuthorizationRepository(), catalog, config.SmsOtpConfig)

	hub := relay.NewHub()
	relayService := relay.NewService(hub)

	operationService := operation.NewService(operation.NewInMemOperationRepository(), resolver, relayService)

	// No notification manager: issued codes are only visible in the store,
	// which is what demo flows poke at anyway.
	smsStep := operation.NewSMSOTPStep(otpService, nil, nil)
	mobileStep := operation.NewMobileTokenStep(mobiletoken.NewService(mobiletoken.NewInMemSecretRepository()))

	operationHandler := operationapi.NewHandler(operationService, smsStep, mobileStep)
	operationHandler.RegisterRoutes(server.R)

	prefsHandler := prefsapi.NewHandler(prefService)
	prefsHandler.RegisterRoutes(server.R)

	server.R.Get("/ws", hub.Handler(relayService))

	server.Run()
}

// demoStepDefinitions configures two operations: a payment confirmed by SMS
// with a mobile token alternative, and a login confirmed by mobile token.
func demoStepDefinitions() []stepflow.StepDefinition {
	return []stepflow.StepDefinition{
		{OperationName: "payment", RequestAuthMethod: stepflow.MethodInit, RequestResult: stepflow.ResultContinue,
			ResponseAuthMethod: stepflow.MethodMobileToken, ResponsePriority: 1},
		{OperationName: "payment", RequestAuthMethod: stepflow.MethodInit, RequestResult: stepflow.ResultContinue,
			ResponseAuthMethod: stepflow.MethodSMSKey, ResponsePriority: 2},
		{OperationName: "payment", RequestAuthMethod: stepflow.MethodMobileToken, RequestResult: stepflow.ResultFailed,
			ResponseAuthMethod: stepflow.MethodSMSKey, ResponsePriority: 1},

		{OperationName: "login", RequestAuthMethod: stepflow.MethodInit, RequestResult: stepflow.ResultContinue,
			ResponseAuthMethod: stepflow.MethodMobileToken, ResponsePriority: 1},
	}
}

func demoCatalog() (*msgcatalog.Catalog, error) {
	catalog, err := msgcatalog.New("en")
	if err != nil {
		return nil, err
	}
	if err := catalog.AddMessage("en", "sms-otp.text",
		"Authorization code for payment of %s %s to account %s is %s."); err != nil {
		return nil, err
	}
	return catalog, nil
}
