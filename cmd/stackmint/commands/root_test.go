package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFlagRoutesViper(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))

	path := filepath.Join(t.TempDir(), "mint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("budget: 2048\n"), 0644))

	old := cfgFile
	cfgFile = path
	defer func() { cfgFile = old }()

	initConfig()
	assert.Equal(t, path, viper.ConfigFileUsed())
	assert.Equal(t, 2048, viper.GetInt("budget"))
}
