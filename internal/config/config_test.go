package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

const validPublic = `http_port: 8080
jwt_ttl_hours: 24
communities_per_page: 20
members_per_page: 20
posts_per_page: 25
mod_log_per_page: 50
max_pinned_posts: 2
max_poll_options: 10
max_report_len: 500
`

func TestMustLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "public.yaml", validPublic)
	writeConfig(t, dir, "private.yaml", "jwt_key: 'k'\npg:\n  host: localhost\n  port: 5432\n  user: u\n  password: p\n  dbname: kiez\n")

	cfg := MustLoad(dir)

	if cfg.Public.MaxPinnedPosts != 2 {
		t.Errorf("expected max_pinned_posts 2, got %d", cfg.Public.MaxPinnedPosts)
	}
	if cfg.JwtKey() != "k" {
		t.Errorf("expected jwt key 'k', got %q", cfg.JwtKey())
	}
	if cfg.Private.Pg.Dbname != "kiez" {
		t.Errorf("expected dbname 'kiez', got %q", cfg.Private.Pg.Dbname)
	}
}

func TestMustLoad_RequiredFields(t *testing.T) {
	// max_pinned_posts intentionally missing to ensure validation panics
	dir := t.TempDir()
	writeConfig(t, dir, "public.yaml", "jwt_ttl_hours: 24\ncommunities_per_page: 20\nmembers_per_page: 20\nposts_per_page: 25\nmod_log_per_page: 50\nmax_poll_options: 10\nmax_report_len: 500\n")
	writeConfig(t, dir, "private.yaml", "jwt_key: 'k'\n")

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic due to missing required field, got none")
		}
	}()

	_ = MustLoad(dir)
}

func TestMustLoad_EnvOverridesSecrets(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "public.yaml", validPublic)
	writeConfig(t, dir, "private.yaml", "jwt_key: 'from-file'\n")
	t.Setenv("KIEZ_JWT_KEY", "from-env")

	cfg := MustLoad(dir)

	if cfg.JwtKey() != "from-env" {
		t.Errorf("expected env var to win, got %q", cfg.JwtKey())
	}
}
