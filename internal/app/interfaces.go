package app

import (
	"github.com/talkincode/productapi/config"
	"github.com/talkincode/productapi/internal/store"
)

// StoreProvider provides the collection handle
type StoreProvider interface {
	Store() store.Store
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// ReadinessProvider exposes the startup state for request gating
type ReadinessProvider interface {
	IsReady() bool
	State() State
}

// HealthProvider exposes the result of the last background store ping
type HealthProvider interface {
	Health() HealthStatus
}

// AppContext combines the provider interfaces the web layer depends on
type AppContext interface {
	StoreProvider
	ConfigProvider
	ReadinessProvider
	HealthProvider
}
