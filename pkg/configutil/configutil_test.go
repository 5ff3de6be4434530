package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url" validate:"required,url"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Timeout  int    `json:"timeout_seconds" validate:"gte=0"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		base_url: "https://panda.ecs.kyoto-u.ac.jp",
		username: "placeholder",
		timeout_seconds: 30,
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{
		username: "a0123456",
		password: "hunter2",
	}`)

	cfg, err := ReadValidated[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		BaseUrl:  "https://panda.ecs.kyoto-u.ac.jp",
		Username: "a0123456",
		Password: "hunter2",
		Timeout:  30,
	}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadValidatedRejectsIncomplete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{base_url: "not a url", username: "x"}`)

	_, err := ReadValidated[testConfig](filepath.Join(dir, "config.json5"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "BaseUrl")
	require.Contains(t, err.Error(), "Password")
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	err := os.MkdirAll(nested, 0700)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "telemetry_test.json5"), `{username: "found"}`)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	err = os.Chdir(nested)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("telemetry_test.json5")
	require.NoError(t, err)
	require.Equal(t, "found", cfg.Username)
}
