package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	tempConfigsSubDir := filepath.Join(tempDir, "configs")
	err = os.Mkdir(tempConfigsSubDir, 0755)
	require.NoError(t, err)

	testAppName := "TestApp"
	testPort := 9090
	testLogLevel := "debug"
	testKafkaBrokers := "kafka1:9092,kafka2:9092"

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nYNAB_BUDGET_ID=budget-1\nRECONCILE_WORDS_PER_ITEM=5\nRECONCILE_DATE_POLICY=latest\n",
		testAppName, testPort, testLogLevel, testKafkaBrokers,
	)
	envFilePath := filepath.Join(tempConfigsSubDir, "test_happy.env")
	err = os.WriteFile(envFilePath, []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	err = os.Chdir(tempDir)
	require.NoError(t, err)

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, testAppName, cfg.Application.Name)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, testLogLevel, cfg.Logging.Level)
	assert.Equal(t, testKafkaBrokers, cfg.Kafka.Brokers)
	assert.Equal(t, "budget-1", cfg.YNAB.BudgetID)
	assert.Equal(t, 5, cfg.Reconcile.WordsPerItem)
	assert.Equal(t, "latest", cfg.Reconcile.DatePolicy)

	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "reconciliation_requests", cfg.Kafka.ReconcileTopic)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, 10, cfg.WorkerPool.Size)
	assert.Equal(t, "https://api.youneedabudget.com/v1", cfg.YNAB.BaseURL)
	assert.Equal(t, int64(1000), cfg.Reconcile.AmountScale)
	assert.Equal(t, 0, cfg.Reconcile.DateWindowLower)
	assert.Equal(t, 5, cfg.Reconcile.DateWindowUpper)
	assert.Equal(t, "Credit Card", cfg.Reconcile.SettlementMethod)
	assert.True(t, cfg.Reconcile.ShortItems)

	cfgWithName, err := LoadConfigWithName("configs/test_happy") // Viper will look for configs/test_happy.env
	require.NoError(t, err)
	require.NotNil(t, cfgWithName)
	assert.Equal(t, testAppName, cfgWithName.Application.Name)

	cfgWithNameAndType, err := LoadConfigWithNameAndType("configs/test_happy", "env")
	require.NoError(t, err)
	require.NotNil(t, cfgWithNameAndType)
	assert.Equal(t, testAppName, cfgWithNameAndType.Application.Name)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	tempDir := t.TempDir()

	envContent := "RECONCILE_SETTLEMENT_METHOD=Cash\nRECONCILE_DATE_WINDOW_LOWER_DAYS=7\n"
	err := os.WriteFile(filepath.Join(tempDir, "test_invalid.env"), []byte(envContent), 0644)
	require.NoError(t, err)

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	defer func() {
		_ = os.Chdir(originalWD)
	}()
	require.NoError(t, os.Chdir(tempDir))

	cfg, err := LoadConfig("test_invalid")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "RECONCILE_SETTLEMENT_METHOD must be one of Credit Card, Gift Card")
	assert.Contains(t, err.Error(), "RECONCILE_DATE_WINDOW_LOWER_DAYS must not exceed RECONCILE_DATE_WINDOW_UPPER_DAYS")
}

func TestConfig_Validate_HappyPath(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	err := cfg.validate()
	assert.NoError(t, err, "Default config should be valid")
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	cfg.Server.Port = 0
	cfg.Kafka.ReconcileTopic = ""
	cfg.YNAB.DaysBack = 0
	cfg.Reconcile.AmountScale = 0
	cfg.Reconcile.DatePolicy = "first"

	err := cfg.validate()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "SERVER_PORT must be greater than 0")
	assert.Contains(t, msg, "KAFKA_RECONCILE_TOPIC is required")
	assert.Contains(t, msg, "YNAB_DAYS_BACK must be greater than 0")
	assert.Contains(t, msg, "RECONCILE_AMOUNT_SCALE must be greater than 0")
	assert.Contains(t, msg, "RECONCILE_DATE_POLICY must be one of last_in_document, latest")
}
