package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("VORTEX_CONFIG_PATH", "/custom/config.toml")
		t.Setenv("VORTEX_HOME", "/custom/vortex")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		want := Defaults{ConfigPath: "/custom/config.toml", BaseDir: "/custom/vortex", LogDir: "/custom/vortex/log"}
		if d != want {
			t.Errorf("GetDefaults() = %+v, want %+v", d, want)
		}
	})

	t.Run("uses xdg dirs", func(t *testing.T) {
		t.Setenv("VORTEX_CONFIG_PATH", "")
		t.Setenv("VORTEX_HOME", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
		t.Setenv("XDG_DATA_HOME", "/xdg/data")

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}
		want := Defaults{ConfigPath: "/xdg/config/vortex.toml", BaseDir: "/xdg/data/vortex", LogDir: "/xdg/data/vortex/log"}
		if d != want {
			t.Errorf("GetDefaults() = %+v, want %+v", d, want)
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		for _, k := range []string{"VORTEX_CONFIG_PATH", "VORTEX_HOME", "XDG_CONFIG_HOME", "XDG_DATA_HOME"} {
			t.Setenv(k, "")
		}

		d, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()
		wantBase := filepath.Join(homeDir, ".local", "share", "vortex")
		want := Defaults{
			ConfigPath: filepath.Join(homeDir, ".config", "vortex.toml"),
			BaseDir:    wantBase,
			LogDir:     filepath.Join(wantBase, "log"),
		}
		if d != want {
			t.Errorf("GetDefaults() = %+v, want %+v", d, want)
		}
	})
}
