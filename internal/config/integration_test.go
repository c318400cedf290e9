package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubConfigStore struct {
	data map[string]map[string]string
}

func (s *stubConfigStore) GetSystemConfig(ctx context.Context, id string) (map[string]string, error) {
	return s.data[id], nil
}

func TestGetIntegrationConfigPrefersEnvironment(t *testing.T) {
	store := &stubConfigStore{data: map[string]map[string]string{
		SystemConfigIntegrations: {"INDIAMART_CRM_KEY": "stored-key"},
	}}

	t.Setenv("INDIAMART_CRM_KEY", "env-key")
	assert.Equal(t, "env-key", GetIntegrationConfig(context.Background(), store, "INDIAMART_CRM_KEY"))

	t.Setenv("INDIAMART_CRM_KEY", "")
	assert.Equal(t, "stored-key", GetIntegrationConfig(context.Background(), store, "INDIAMART_CRM_KEY"))
}

func TestGetIntegrationConfigMissingEverywhere(t *testing.T) {
	store := &stubConfigStore{data: map[string]map[string]string{}}
	assert.Equal(t, "", GetIntegrationConfig(context.Background(), store, "NOT_SET_ANYWHERE"))
}
