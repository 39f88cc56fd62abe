// Package config reads settings from environment variables.
// Variables can also be set in a .env file, real environment wins.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/studentgrades/gradebook/u"
)

const (
	DefaultFile     = "student_grades.xlsx"
	DefaultLogDir   = "logs"
	DefaultHTTPAddr = "127.0.0.1:8080"
)

type Config struct {
	File     string
	Journal  string
	LogDir   string
	HTTPAddr string

	BackupCompression u.Compression
	// local directory for snapshots
	BackupDir string

	MinioEndpoint string
	MinioAccess   string
	MinioSecret   string
	MinioBucket   string
	MinioRegion   string

	SFTPHost string
	SFTPUser string
	SFTPKey  string
	SFTPDir  string
}

func getEnv(key string, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Load reads .env files (if they exist) and then environment variables.
// With no envFiles, ".env" in current directory is tried.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if !u.FileExists(path) {
			continue
		}
		// doesn't override variables that are already set
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load '%s': %w", path, err)
		}
	}

	c := &Config{
		File:     getEnv("GRADES_FILE", DefaultFile),
		LogDir:   getEnv("GRADES_LOG_DIR", DefaultLogDir),
		HTTPAddr: getEnv("GRADES_HTTP_ADDR", DefaultHTTPAddr),

		BackupDir: getEnv("GRADES_BACKUP_DIR", ""),

		MinioEndpoint: getEnv("MINIO_ENDPOINT", ""),
		MinioAccess:   getEnv("MINIO_ACCESS", ""),
		MinioSecret:   getEnv("MINIO_SECRET", ""),
		MinioBucket:   getEnv("MINIO_BUCKET", ""),
		MinioRegion:   getEnv("MINIO_REGION", ""),

		SFTPHost: getEnv("SFTP_HOST", ""),
		SFTPUser: getEnv("SFTP_USER", ""),
		SFTPKey:  getEnv("SFTP_KEY", ""),
		SFTPDir:  getEnv("SFTP_DIR", ""),
	}
	c.SetFile(c.File)
	if v := getEnv("GRADES_JOURNAL", ""); v != "" {
		c.Journal = v
	}
	var err error
	c.BackupCompression, err = u.ParseCompression(getEnv("GRADES_BACKUP_COMPRESSION", ""))
	if err != nil {
		return nil, fmt.Errorf("GRADES_BACKUP_COMPRESSION: %w", err)
	}
	return c, nil
}

// SetFile changes grades file and, unless GRADES_JOURNAL is set,
// the journal that goes with it
func (c *Config) SetFile(path string) {
	c.File = path
	if os.Getenv("GRADES_JOURNAL") == "" {
		c.Journal = path + ".journal.txt"
	}
}

func (c *Config) HasMinio() bool {
	return c.MinioEndpoint != "" && c.MinioBucket != ""
}

func (c *Config) HasSFTP() bool {
	return c.SFTPHost != "" && c.SFTPUser != ""
}
