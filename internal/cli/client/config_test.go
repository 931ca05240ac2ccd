package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
	assert.True(t, filepath.IsAbs(dir))
	assert.True(t, strings.HasSuffix(dir, "inlet"))
}

func TestGetConfigPath(t *testing.T) {
	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.True(t, filepath.IsAbs(path))
	assert.True(t, strings.HasSuffix(path, "config.json"))
}

func withConfigPath(t *testing.T, configPath string) {
	t.Helper()
	oldGetConfigPath := getConfigPathFunc
	oldGetConfigDir := getConfigDirFunc
	getConfigPathFunc = func() (string, error) {
		return configPath, nil
	}
	getConfigDirFunc = func() (string, error) {
		return filepath.Dir(configPath), nil
	}
	t.Cleanup(func() {
		getConfigPathFunc = oldGetConfigPath
		getConfigDirFunc = oldGetConfigDir
	})
}

func TestLoadGlobalConfig_FileNotExists(t *testing.T) {
	withConfigPath(t, filepath.Join(t.TempDir(), "config.json"))

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestLoadGlobalConfig_ValidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	withConfigPath(t, configPath)

	testConfig := GlobalConfig{APIURL: "http://localhost:9090"}
	data, _ := json.MarshalIndent(testConfig, "", "  ")
	require.NoError(t, os.WriteFile(configPath, data, 0600))

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, "http://localhost:9090", config.APIURL)
}

func TestLoadGlobalConfig_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	withConfigPath(t, configPath)

	require.NoError(t, os.WriteFile(configPath, []byte("{not json"), 0600))

	_, err := LoadGlobalConfig()
	assert.Error(t, err)
}

func TestSaveGlobalConfig_RoundTrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	withConfigPath(t, configPath)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://inlet.internal:8080"}))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	config, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, "http://inlet.internal:8080", config.APIURL)
}

func TestSaveGlobalConfig_NilConfig(t *testing.T) {
	err := SaveGlobalConfig(nil)
	assert.Error(t, err)
}

func TestDeleteGlobalConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	withConfigPath(t, configPath)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://localhost:8080"}))
	require.NoError(t, DeleteGlobalConfig())

	_, err := os.Stat(configPath)
	assert.True(t, os.IsNotExist(err))

	// Deleting a missing file is not an error
	assert.NoError(t, DeleteGlobalConfig())
}
