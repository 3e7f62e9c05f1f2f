package cli

import (
	"io"
	"testing"

	"github.com/beltline/beltline/internal/config"
	"github.com/beltline/beltline/pkg/pipeline"
)

func testCLI(t *testing.T) *CLI {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	return New(io.Discard, LogInfo)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := testCLI(t)
	root := c.RootCommand()

	want := []string{
		"solve", "validate", "route", "export", "inspect",
		"serve", "plans", "cache", "completion",
	}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to json", "", []string{pipeline.FormatJSON}},
		{"single format", "dot", []string{"dot"}},
		{"multiple formats", "json,svg", []string{"json", "svg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExportPath(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		format string
		multi  bool
		want   string
	}{
		{"single format keeps path", "out.dot", "dot", false, "out.dot"},
		{"multi appends extension", "factory", "svg", true, "factory.svg"},
		{"multi replaces extension", "factory.json", "dot", true, "factory.dot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportPath(tt.base, tt.format, tt.multi); got != tt.want {
				t.Errorf("exportPath(%q, %q, %v) = %q, want %q",
					tt.base, tt.format, tt.multi, got, tt.want)
			}
		})
	}
}

func TestNewCacheRespectsConfig(t *testing.T) {
	c := testCLI(t)

	c.Config.Cache.Backend = config.CacheBackendNone
	cc, err := c.newCache(false)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	if cc == nil {
		t.Fatal("newCache() returned nil cache")
	}

	c.Config.Cache.Backend = config.CacheBackendFile
	c.Config.Cache.Dir = t.TempDir()
	if _, err := c.newCache(false); err != nil {
		t.Fatalf("newCache() with file backend error: %v", err)
	}

	// noCache wins over any configured backend
	if _, err := c.newCache(true); err != nil {
		t.Fatalf("newCache(true) error: %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{1536, "1.5 KiB"},
		{3 * 1024 * 1024, "3.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
