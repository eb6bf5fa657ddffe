package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8080" || cfg.Workers != 4 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Classify.PositiveThreshold != 0.1 || cfg.Classify.NegativeThreshold != -0.1 {
		t.Fatalf("classify defaults = %+v", cfg.Classify)
	}
	if cfg.Schedule.Ingest != "0 10 * * *" {
		t.Fatalf("ingest schedule = %q", cfg.Schedule.Ingest)
	}
	if len(cfg.Schedule.Reports) != 2 {
		t.Fatalf("reports = %+v", cfg.Schedule.Reports)
	}
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
httpAddr: ":9090"
workers: 8
sources:
  - name: brand
    kind: page
    url: https://shop.example/feedback
  - name: wb
    kind: card
    url: https://feed.example/api
    productIds: ["101", "102"]
    pageSize: 20
    maxPages: 3
classify:
  positiveThreshold: 0.2
  negativeThreshold: -0.3
  defectKeywords: [broken, dead-on-arrival]
schedule:
  ingest: "0 */6 * * *"
  reports:
    - name: weekly
      cron: "0 9 * * 1"
      windowDays: 7
      sources: [brand]
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()
	if cfg.HTTPAddr != ":9090" || cfg.Workers != 8 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[1].Kind != "card" || cfg.Sources[1].PageSize != 20 {
		t.Fatalf("sources = %+v", cfg.Sources)
	}
	if cfg.Classify.NegativeThreshold != -0.3 || len(cfg.Classify.DefectKeywords) != 2 {
		t.Fatalf("classify = %+v", cfg.Classify)
	}
	if len(cfg.Schedule.Reports) != 1 || cfg.Schedule.Reports[0].Sources[0] != "brand" {
		t.Fatalf("reports = %+v", cfg.Schedule.Reports)
	}
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(`httpAddr: ":9090"`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("MYSQL_DSN", "user:pw@tcp(db:3306)/reviews?parseTime=true")
	t.Setenv("CACHE_TTL_SECONDS", "60")

	cfg := Load()
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("env override lost: %q", cfg.HTTPAddr)
	}
	if cfg.MySQLDSN != "user:pw@tcp(db:3306)/reviews?parseTime=true" {
		t.Fatalf("dsn = %q", cfg.MySQLDSN)
	}
	if cfg.CacheTTL != time.Minute {
		t.Fatalf("cache ttl = %s", cfg.CacheTTL)
	}
}

func TestLoad_UnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, "/nonexistent/config.yaml")
	cfg := Load()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLocation(t *testing.T) {
	c := Config{Timezone: "Europe/Berlin"}
	if c.Location().String() != "Europe/Berlin" {
		t.Fatalf("location = %s", c.Location())
	}
	bad := Config{Timezone: "Not/AZone"}
	if bad.Location() != time.UTC {
		t.Fatalf("fallback = %s", bad.Location())
	}
}
