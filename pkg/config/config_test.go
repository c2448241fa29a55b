package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "storage", cfg.Storage.URLPrefix)
	assert.Equal(t, "violations", cfg.Evidence.Namespace)
	assert.Equal(t, int64(10*1024*1024), cfg.Evidence.MaxFileSizeBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png"}, cfg.Evidence.AllowedMIMEs)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Display.Timezone)
	assert.Equal(t, time.Minute, cfg.Cache.DashboardTTL)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiration)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORAGE_URL_PREFIX", "/public-files/")
	v.Set("EVIDENCE_MAX_FILE_SIZE", 0)
	v.Set("DASHBOARD_CACHE_TTL", "not-a-duration")

	cfg := fromViper(v)

	assert.Equal(t, "public-files", cfg.Storage.URLPrefix)
	assert.Equal(t, int64(10*1024*1024), cfg.Evidence.MaxFileSizeBytes)
	assert.Equal(t, time.Minute, cfg.Cache.DashboardTTL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , ,b "))
}
