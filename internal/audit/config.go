package audit

import (
	"context"

	"afdaudit/internal/domain"
	"afdaudit/internal/infra"
)

// ConfigService applies validated per-group setting changes.
type ConfigService struct {
	configs domain.GroupConfigRepository
	logger  infra.Logger
}

func NewConfigService(configs domain.GroupConfigRepository, logger infra.Logger) *ConfigService {
	return &ConfigService{configs: configs, logger: logger}
}

// Update sets key to value for group and returns the stored value rendered
// back as text. Unknown keys and invalid values leave the table untouched.
func (s *ConfigService) Update(ctx context.Context, group int64, key, value string) (string, error) {
	cfg, err := s.configs.Update(ctx, group, key, value)
	if err != nil {
		return "", err
	}
	echo, _ := cfg.Field(key)
	s.logger.Debug().Int64("group_id", group).Str("key", key).Str("value", echo).Msg("audit: group config echoed")
	return echo, nil
}

// Get returns the settings for group.
func (s *ConfigService) Get(ctx context.Context, group int64) (domain.GroupConfig, error) {
	return s.configs.Get(ctx, group)
}
