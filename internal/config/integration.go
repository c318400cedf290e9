package config

import (
	"context"
	"log"
	"os"
)

// ConfigStore is the slice of the persistence layer the integration lookup
// needs; satisfied by core.Store.
type ConfigStore interface {
	GetSystemConfig(ctx context.Context, id string) (map[string]string, error)
}

// SystemConfigIntegrations is the config document holding per-integration
// credentials managed from the settings screen.
const SystemConfigIntegrations = "integrations"

// GetIntegrationConfig resolves a per-integration credential (WhatsApp token,
// IndiaMART key). Precedence: process environment first, then the stored
// system_config document.
func GetIntegrationConfig(ctx context.Context, store ConfigStore, key string) string {
	if v := os.Getenv(key); v != "" {
		log.Printf("[config] Loaded %s from environment.", key)
		return v
	}

	data, err := store.GetSystemConfig(ctx, SystemConfigIntegrations)
	if err != nil {
		log.Printf("[config] Failed to fetch %s from store: %v", key, err)
		return ""
	}
	if v, ok := data[key]; ok && v != "" {
		log.Printf("[config] Loaded %s from store.", key)
		return v
	}

	log.Printf("[config] Missing configuration for %s.", key)
	return ""
}
