package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)

	home := homeDir()
	assert.Equal(suite.T(), filepath.Join(home, "Music"), cfg.Library.Location)
	assert.Equal(suite.T(), filepath.Join(home, ".smj7.sqlite"), cfg.Library.Database)
	assert.Empty(suite.T(), cfg.Library.OverlayIndex)
	assert.Equal(suite.T(), "tracks", cfg.View.Kind)
	assert.Equal(suite.T(), "name", cfg.View.Sort)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
	assert.Equal(suite.T(), 2, cfg.Output.Indent)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
library:
  location: "./music"
  overlay_index: "./remote.bleve"
view:
  kind: albums
  sort: artist
log:
  level: debug
`
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(configContent), 0o644))

	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), filepath.Join(suite.tempDir, "music"), cfg.Library.Location)
	assert.Equal(suite.T(), filepath.Join(suite.tempDir, "remote.bleve"), cfg.Library.OverlayIndex)
	assert.Equal(suite.T(), "albums", cfg.View.Kind)
	assert.Equal(suite.T(), "artist", cfg.View.Sort)
	assert.Equal(suite.T(), "debug", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestExplicitConfigFileMustExist() {
	_, err := LoadConfig(filepath.Join(suite.tempDir, "missing.yaml"), nil)
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestEnvironmentOverridesDefaults() {
	suite.T().Setenv("SMJ_VIEW_SORT", "recent")
	suite.T().Setenv("SMJ_INDEX_WORKERS", "3")

	cfg, err := LoadConfig("", nil)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "recent", cfg.View.Sort)
	assert.Equal(suite.T(), 3, cfg.Index.Workers)
}

func (suite *ConfigTestSuite) TestFlagsOverrideEverything() {
	suite.T().Setenv("SMJ_VIEW_KIND", "albums")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("kind", "tracks", "")
	flags.String("sort", "name", "")
	flags.Bool("json", false, "")
	require.NoError(suite.T(), flags.Parse([]string{"--kind", "artists", "--json"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "artists", cfg.View.Kind)
	assert.Equal(suite.T(), "name", cfg.View.Sort)
	assert.True(suite.T(), cfg.Output.JSON)
}
