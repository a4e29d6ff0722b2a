package pkg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsForZeroFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	content := "classpath = [\"./classes\"]\n\n[vm]\nstack_size = 8192\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VM.StackSize != 8192 {
		t.Fatalf("StackSize = %d, want 8192", cfg.VM.StackSize)
	}
	if cfg.VM.ArenaSize != Default().VM.ArenaSize {
		t.Fatalf("ArenaSize = %d, want default %d", cfg.VM.ArenaSize, Default().VM.ArenaSize)
	}
	if cfg.VM.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.VM.LogLevel)
	}
	if len(cfg.Classpath) != 1 || cfg.Classpath[0] != "./classes" {
		t.Fatalf("Classpath = %v, want [./classes]", cfg.Classpath)
	}
}

func TestSaveSettlesBackThroughLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := Default()
	cfg.Classpath = []string{"/opt/classes", "/opt/libs"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.VM.ArenaSize != cfg.VM.ArenaSize {
		t.Fatalf("ArenaSize = %d, want %d", loaded.VM.ArenaSize, cfg.VM.ArenaSize)
	}
	if len(loaded.Classpath) != 2 {
		t.Fatalf("Classpath = %v, want 2 entries", loaded.Classpath)
	}
}
