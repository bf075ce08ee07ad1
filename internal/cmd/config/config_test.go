package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appconfig "github.com/Iron-Ham/ttylog/internal/config"
)

// setupConfigEnv points the config directory at a temp dir and resets viper.
func setupConfigEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	viper.Reset()
	appconfig.SetDefaults()
	t.Cleanup(viper.Reset)
	return filepath.Join(dir, "ttylog")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	configCmd.SetOut(buf)
	configCmd.SetErr(buf)
	configCmd.SetArgs(args)
	err := configCmd.Execute()
	return buf.String(), err
}

func TestRenderConfig(t *testing.T) {
	t.Run("without comments round trips", func(t *testing.T) {
		data, err := renderConfig(appconfig.Default(), false)
		if err != nil {
			t.Fatalf("renderConfig() error = %v", err)
		}
		if strings.Contains(string(data), "#") {
			t.Errorf("unexpected comment in output:\n%s", data)
		}

		var got appconfig.Config
		if err := yaml.Unmarshal(data, &got); err != nil {
			t.Fatalf("yaml.Unmarshal() error = %v", err)
		}
		if got != *appconfig.Default() {
			t.Errorf("round trip = %+v, want %+v", got, *appconfig.Default())
		}
	})

	t.Run("with comments documents every key", func(t *testing.T) {
		data, err := renderConfig(appconfig.Default(), true)
		if err != nil {
			t.Fatalf("renderConfig() error = %v", err)
		}
		for _, c := range keyComments {
			if !strings.Contains(string(data), "# "+c) {
				t.Errorf("missing comment %q in output:\n%s", c, data)
			}
		}
	})
}

func TestKeyTablesAgree(t *testing.T) {
	for key := range keyTypes {
		if _, ok := keyComments[key]; !ok {
			t.Errorf("settable key %q has no comment", key)
		}
	}
}

func TestConfigInit(t *testing.T) {
	dir := setupConfigEnv(t)

	out, err := execute(t, "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if !strings.Contains(out, path) {
		t.Errorf("output %q does not mention %s", out, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	var got appconfig.Config
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("generated file is not valid YAML: %v", err)
	}
	if got != *appconfig.Default() {
		t.Errorf("generated config = %+v, want defaults", got)
	}

	if _, err := execute(t, "init"); err == nil {
		t.Error("second config init should fail because the file exists")
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
		want    any
	}{
		{name: "int", key: "capture.tab_width", value: "8", want: 8},
		{name: "bool", key: "output.compress", value: "true", want: true},
		{name: "string", key: "record.shell", value: "/bin/zsh", want: "/bin/zsh"},
		{name: "level is lowercased", key: "logging.level", value: "DEBUG", want: "debug"},
		{name: "unknown key", key: "nope.key", value: "1", wantErr: true},
		{name: "bad int", key: "capture.width", value: "wide", wantErr: true},
		{name: "negative int", key: "capture.width", value: "-1", wantErr: true},
		{name: "bad bool", key: "output.sync", value: "yes", wantErr: true},
		{name: "bad level", key: "logging.level", value: "loud", wantErr: true},
		{name: "tab width above limit", key: "capture.tab_width", value: "65", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupConfigEnv(t)

			_, err := execute(t, "set", tt.key, tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("config set error = %v", err)
			}

			// Read the file back with a fresh viper
			v := viper.New()
			v.SetConfigFile(filepath.Join(dir, "config.yaml"))
			if err := v.ReadInConfig(); err != nil {
				t.Fatalf("ReadInConfig() error = %v", err)
			}
			if got := v.Get(tt.key); got != tt.want {
				t.Errorf("%s = %v (%T), want %v (%T)", tt.key, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestConfigReset(t *testing.T) {
	setupConfigEnv(t)

	if _, err := execute(t, "set", "capture.width", "120"); err != nil {
		t.Fatalf("config set error = %v", err)
	}
	out, err := execute(t, "reset", "capture.width")
	if err != nil {
		t.Fatalf("config reset error = %v", err)
	}
	if !strings.Contains(out, "Reset capture.width to default: 0") {
		t.Errorf("unexpected output: %q", out)
	}
	if got := viper.GetInt("capture.width"); got != 0 {
		t.Errorf("capture.width = %d after reset, want 0", got)
	}

	if _, err := execute(t, "reset", "nope.key"); err == nil {
		t.Error("reset of unknown key should fail")
	}
}

func TestConfigShow(t *testing.T) {
	setupConfigEnv(t)
	viper.Set("capture.tab_width", 4)

	out, err := execute(t, "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "(none - using defaults)") {
		t.Errorf("expected no config file note, got:\n%s", out)
	}
	if !strings.Contains(out, "tab_width: 4") {
		t.Errorf("expected tab_width: 4 in output:\n%s", out)
	}
}

func TestConfigPath(t *testing.T) {
	dir := setupConfigEnv(t)

	out, err := execute(t, "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if !strings.Contains(out, filepath.Join(dir, "config.yaml")) {
		t.Errorf("output does not mention config path:\n%s", out)
	}
	if !strings.Contains(out, "TTYLOG_") {
		t.Errorf("output does not mention env prefix:\n%s", out)
	}
}

func TestConfigEdit(t *testing.T) {
	dir := setupConfigEnv(t)
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")

	origLookPath := execLookPath
	t.Cleanup(func() { execLookPath = origLookPath })
	execLookPath = func(string) (string, error) { return "", os.ErrNotExist }

	_, err := execute(t, "edit")
	if err == nil || !strings.Contains(err.Error(), "no editor found") {
		t.Fatalf("expected no editor error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "config.yaml")); statErr != nil {
		t.Errorf("edit should create the config file first: %v", statErr)
	}
}
