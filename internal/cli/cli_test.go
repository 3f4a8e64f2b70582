package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/urd/internal/model"
)

const testCatalog = `[
  {"id": "main", "magnitude": 6.0, "time": "2011-03-11T05:46:24Z", "latitude": 38.3, "longitude": 142.4},
  {"id": "after", "magnitude": 4.0, "time": "2011-03-12T05:46:24Z", "latitude": 38.2, "longitude": 142.3},
  {"id": "remote", "magnitude": 5.0, "time": "2011-03-11T06:00:00Z", "latitude": -20.0, "longitude": -70.0}
]`

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		dir      string
		input    string
		want     string
	}{
		{"explicit wins", "x.json", "out", "cat.json", "x.json"},
		{"derived", "", "out", "data/cat.json", filepath.Join("out", "cat.gk.mainshocks.json")},
		{"stdin", "", ".", "-", "catalog.gk.mainshocks.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPath(tt.explicit, tt.dir, tt.input, "gk", "mainshocks")
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".urd", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when the file already exists")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var got model.Config
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if diff := cmp.Diff(*model.DefaultConfig(), got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("URD_REASENBERG_RFACT", "7.5")
	t.Setenv("URD_A1B_RADIUS_KM", "40")
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Reasenberg.Rfact != 7.5 {
		t.Errorf("expected rfact 7.5 from env, got %g", cfg.Reasenberg.Rfact)
	}
	if cfg.A1b.RadiusKm != 40 {
		t.Errorf("expected radius 40 from env, got %g", cfg.A1b.RadiusKm)
	}
	if cfg.Reasenberg.TauMax != 10 {
		t.Errorf("expected default tau_max, got %g", cfg.Reasenberg.TauMax)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("URD_REASENBERG_P", "1.5")
	initConfig()

	if _, err := loadConfig(); err == nil {
		t.Error("expected validation error for p outside (0, 1)")
	}
}

func TestDeclusterCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	input := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(input, []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(dir, "out", "main.json")
	afterPath := filepath.Join(dir, "out", "after.json")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"window", "--window-size", "1.0", "--no-cache",
		"--input", input,
		"--mainshocks", mainPath,
		"--aftershocks", afterPath,
	})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	for _, want := range []string{"Wrote 2 mainshocks", "Wrote 1 aftershocks"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	data, err := os.ReadFile(afterPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"parent_id": "main"`) {
		t.Errorf("expected parent attribution in aftershock output:\n%s", data)
	}
}

func TestCompareCommand_ReportsFailedEngines(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	input := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(input, []byte(testCatalog), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"compare", input, "--methods", "gk,bogus", "--no-cache"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute()
	if err == nil || !strings.Contains(err.Error(), "1 of 2 engines failed") {
		t.Fatalf("expected one failed engine, got %v", err)
	}
	for _, want := range []string{"gk", "bogus", "error:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("comparison missing %q:\n%s", want, out.String())
		}
	}
}
