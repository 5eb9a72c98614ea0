package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sociograph/crypto"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "expected default file to be written")

	require.Equal(t, "0.0.0.0:8645", cfg.ListenAddress)
	require.Equal(t, uint64(1000), cfg.FeeCollect.CollectRewardFeeBps)
	require.Equal(t, 100, cfg.Log.MaxSizeMB)
	require.Equal(t, "local", cfg.Environment)
}

func TestLoadAppliesDefaultsToSparseFile(t *testing.T) {
	path := writeConfig(t, "DataDir = \"/tmp/soc\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/soc", cfg.DataDir)
	require.Equal(t, "0.0.0.0:8645", cfg.ListenAddress)
	require.Equal(t, 5, cfg.Log.MaxBackups)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "ListenAddress = \"127.0.0.1:1\"\nMysteryKey = true\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown key")
}

func TestLoadRejectsInvalidAddress(t *testing.T) {
	path := writeConfig(t, "Governance = \"not-an-address\"\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "Governance")
}

func TestLoadRejectsOversizedFees(t *testing.T) {
	path := writeConfig(t, "[feecollect]\nTreasuryFeeBps = 9000\nCollectRewardFeeBps = 2000\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "bps")
}

func TestAddressDecoding(t *testing.T) {
	addr, err := Address("")
	require.NoError(t, err)
	require.Equal(t, [20]byte{}, addr, "empty address should decode to zero")

	var raw [20]byte
	raw[19] = 0x42
	encoded := crypto.NewAddress(crypto.SocPrefix, raw[:]).String()
	addr, err = Address(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, addr)

	_, err = Address("soc1garbage")
	require.Error(t, err)
}
