package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/picktoride/service-rental/internal/domain/booking"
	"github.com/picktoride/service-rental/internal/platform/config"
	"github.com/picktoride/service-rental/internal/platform/domain"
)

// PricingConfig holds the tariff applied to new and edited bookings.
type PricingConfig struct {
	DriverDailyRate decimal.Decimal
	BookingFee      decimal.Decimal
	Currency        string
}

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port              string
	AppEnv            string
	MigrationsDir     string
	SideEffectTimeout time.Duration
	DBConfig          config.DatabaseConfig
	JWTConfig         config.JWTConfig
	KafkaConfig       config.KafkaConfig
	Pricing           PricingConfig
}

// Load reads configuration from RENTAL_* environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RENTAL")
	if err != nil {
		return nil, err
	}
	v.SetDefault("DB_NAME", "picktoride_rental")
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("SIDE_EFFECT_TIMEOUT", "10s")
	v.SetDefault("PRICING_DRIVER_DAILY_RATE", booking.DefaultDriverDailyRate.String())
	v.SetDefault("PRICING_BOOKING_FEE", booking.DefaultBookingFee.String())
	v.SetDefault("PRICING_CURRENCY", domain.CurrencyLKR)

	driverRate, err := decimal.NewFromString(v.GetString("PRICING_DRIVER_DAILY_RATE"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_DRIVER_DAILY_RATE: %w", err)
	}
	fee, err := decimal.NewFromString(v.GetString("PRICING_BOOKING_FEE"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRICING_BOOKING_FEE: %w", err)
	}
	if driverRate.IsNegative() || fee.IsNegative() {
		return nil, fmt.Errorf("pricing rates must not be negative")
	}

	return &ServiceConfig{
		Port:              config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:            config.GetAppEnv(v),
		MigrationsDir:     v.GetString("MIGRATIONS_DIR"),
		SideEffectTimeout: v.GetDuration("SIDE_EFFECT_TIMEOUT"),
		DBConfig:          config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:         config.LoadJWTConfig(v),
		KafkaConfig:       config.LoadKafkaConfig(v),
		Pricing: PricingConfig{
			DriverDailyRate: driverRate,
			BookingFee:      fee,
			Currency:        v.GetString("PRICING_CURRENCY"),
		},
	}, nil
}
