package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpPort           int      `yaml:"http_port"`
	JwtTTLHours        int      `yaml:"jwt_ttl_hours"`
	SecureCookies      bool     `yaml:"secure_cookies"`
	LogLevel           string   `yaml:"log_level"`
	LogJSON            bool     `yaml:"log_json"`
	CommunitiesPerPage int      `yaml:"communities_per_page"`
	MembersPerPage     int      `yaml:"members_per_page"`
	PostsPerPage       int      `yaml:"posts_per_page"`
	ModLogPerPage      int      `yaml:"mod_log_per_page"`
	MaxPinnedPosts     int      `yaml:"max_pinned_posts"` // concurrent pins per community
	MaxPollOptions     int      `yaml:"max_poll_options"`
	MaxReportLen       int      `yaml:"max_report_len"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
}

type Private struct {
	Pg     Pg     `yaml:"pg"`
	JwtKey string `yaml:"jwt_key"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return time.Duration(c.Public.JwtTTLHours) * time.Hour
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file")
	}
}

func (p *Public) validate() {
	required := map[string]bool{
		"http_port":            p.HttpPort > 0,
		"communities_per_page": p.CommunitiesPerPage > 0,
		"members_per_page":     p.MembersPerPage > 0,
		"posts_per_page":       p.PostsPerPage > 0,
		"mod_log_per_page":     p.ModLogPerPage > 0,
		"max_pinned_posts":     p.MaxPinnedPosts > 0,
		"max_poll_options":     p.MaxPollOptions > 0,
		"max_report_len":       p.MaxReportLen > 0,
		"jwt_ttl_hours":        p.JwtTTLHours > 0,
	}
	for field, ok := range required {
		if !ok {
			panic(fmt.Sprintf("config: required field %q missing or invalid", field))
		}
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	public.validate()

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	// secrets may come from the environment instead of private.yaml
	if v := os.Getenv("KIEZ_JWT_KEY"); v != "" {
		private.JwtKey = v
	}
	if v := os.Getenv("KIEZ_PG_PASSWORD"); v != "" {
		private.Pg.Password = v
	}

	return &Config{public, private}
}
