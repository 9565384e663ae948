package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"mad-sand/internal/catalog"
	"mad-sand/internal/engine"
	"mad-sand/internal/physics"
	"mad-sand/internal/trace"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("sand", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestFromMapIgnoresInvalid(t *testing.T) {
	c := FromMap(map[string]string{"w": "64", "height": "-3", "mode": "full", "brush": "x", "audio": "true"})
	if c.Width != 64 || c.Height != DefaultConfig().Height || c.Mode != "full" || c.Brush != 3 || !c.Audio {
		t.Fatalf("FromMap = %+v", c)
	}
	var cfg Config
	if err := cfg.Set("nope", "1"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("unknown key err = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "sand.yaml", "width: 80\nheight: 60\nmaterial: 300\nmode: full\naudio: true\n")
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Width != 80 || c.Height != 60 || c.Material != "300" || c.Mode != "full" || !c.Audio {
		t.Fatalf("loaded %+v", c)
	}
	if c.TPS != DefaultConfig().TPS {
		t.Fatal("unset keys should keep their defaults")
	}
}

func TestLoadFileRejectsSchemaViolations(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key": "width: 10\ncolour: red\n",
		"bad mode":    "mode: sideways\n",
		"zero width":  "width: 0\n",
		"wrong type":  "brush: big\n",
	} {
		path := writeFile(t, "bad.yaml", body)
		if _, err := LoadFile(path); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: err = %v, want ErrInvalidConfig", name, err)
		}
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}

func TestResolvePrecedence(t *testing.T) {
	path := writeFile(t, "sand.yaml", "width: 80\nheight: 60\ntps: 30\n")
	c, err := Resolve(newFlagSet(), []string{"-config", path, "-width", "120"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Width != 120 || c.Height != 60 || c.TPS != 30 || c.Scale != DefaultConfig().Scale {
		t.Fatalf("resolved %+v", c)
	}

	if _, err := Resolve(newFlagSet(), []string{"-width", "0"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("zero width err = %v", err)
	}
}

func TestEngineOptionsResolvesMaterial(t *testing.T) {
	cat, _, err := catalog.Default()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}
	c := DefaultConfig()
	c.Mode = "full"
	opts, err := c.EngineOptions(cat)
	if err != nil {
		t.Fatalf("engine options: %v", err)
	}
	sand, _ := cat.ByName("sand")
	if opts.Material != sand.ID || opts.Mode != physics.ModeFull || opts.Width != c.Width {
		t.Fatalf("options = %+v", opts)
	}

	if id, err := ResolveMaterial(cat, "300"); err != nil || id != 300 {
		t.Fatalf("numeric material = %d, %v", id, err)
	}
	if _, err := ResolveMaterial(cat, "unobtainium"); !errors.Is(err, catalog.ErrUnknownMaterial) {
		t.Fatalf("unknown material err = %v", err)
	}
	if _, err := ResolveMaterial(cat, "5"); !errors.Is(err, catalog.ErrUnknownMaterial) {
		t.Fatalf("reserved id err = %v", err)
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	c := DefaultConfig()
	c.Catalog = filepath.Join(t.TempDir(), "nope.data")
	if _, err := c.LoadCatalog(nil); err == nil {
		t.Fatal("expected error for a missing catalog")
	}
}

func TestSinksRecordTrace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 8, 6
	cfg.Trace = filepath.Join(t.TempDir(), "run.jsonl.zst")

	sinks, err := cfg.OpenSinks(context.Background(), nil)
	if err != nil {
		t.Fatalf("open sinks: %v", err)
	}
	cat, err := cfg.LoadCatalog(nil)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	opts, err := cfg.EngineOptions(cat)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	eng, err := engine.New(opts, sinks.Presenter())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := eng.Tick(engine.Input{X: 4, Y: 5, Inside: true, Paint: true}); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
	if err := sinks.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	entries, err := trace.ReadFile(cfg.Trace)
	if err != nil {
		t.Fatalf("read trace: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Cells < cfg.Width*cfg.Height {
		t.Fatalf("first entry has %d cells, want the whole grid", entries[0].Cells)
	}
}

func TestSinksDisabled(t *testing.T) {
	sinks, err := DefaultConfig().OpenSinks(context.Background(), nil)
	if err != nil {
		t.Fatalf("open sinks: %v", err)
	}
	if sinks.Presenter() != nil {
		t.Fatal("expected no presenter when nothing is enabled")
	}
	if err := sinks.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestValidateBoundsGridSize(t *testing.T) {
	if _, err := Resolve(newFlagSet(), []string{"-width", "70000"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("oversized width err = %v", err)
	}
	c := DefaultConfig()
	c.Width, c.Height = MaxDimension, MaxDimension
	if err := c.Validate(); err != nil {
		t.Fatalf("max size rejected: %v", err)
	}
	c.Height = MaxDimension + 1
	if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("oversized height err = %v", err)
	}
}

func TestLoadFileAcceptsEveryModeName(t *testing.T) {
	for _, mode := range []string{"incremental", "dirty", "full"} {
		path := writeFile(t, "mode.yaml", "mode: "+mode+"\n")
		c, err := LoadFile(path)
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		want, err := physics.ParseMode(mode)
		if err != nil {
			t.Fatalf("parse %s: %v", mode, err)
		}
		if got, _ := physics.ParseMode(c.Mode); got != want {
			t.Fatalf("mode %s loaded as %q", mode, c.Mode)
		}
	}
}
