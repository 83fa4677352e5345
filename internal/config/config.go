package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingEnv 必須の環境変数が設定されていない
var ErrMissingEnv = errors.New("必須の環境変数が設定されていません")

const (
	EnvSupabaseURL       = "SUPABASE_URL"
	EnvPublicSupabaseURL = "NEXT_PUBLIC_SUPABASE_URL"

	EnvServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"
	EnvAnonKey        = "SUPABASE_ANON_KEY"
	EnvPublicAnonKey  = "NEXT_PUBLIC_SUPABASE_ANON_KEY"

	EnvDBPassword       = "SUPABASE_DB_PASSWORD"
	EnvGoogleAPIKey     = "GOOGLE_API_KEY"
	EnvCSVLinksFile     = "CSV_LINKS_FILE"
	EnvDownloadDir      = "DOWNLOAD_DIR"
	EnvStagingBucketURI = "STAGING_BUCKET_URI"
)

// envFiles 後に読み込んだものが優先される
var envFiles = []string{".env", ".env.local"}

// fallbacks 公開用の変数名からの読み替え
var fallbacks = map[string]string{
	EnvSupabaseURL: EnvPublicSupabaseURL,
	EnvAnonKey:     EnvPublicAnonKey,
}

// Config 管理スクリプトの設定
type Config struct {
	SupabaseURL string
	SupabaseKey string
	KeyName     string // どの鍵を使っているか（service role / anon）

	DBPassword       string
	GoogleAPIKey     string
	CSVLinksFile     string
	DownloadDir      string
	StagingBucketURI string
}

// LoadEnvFiles dir の .env と .env.local を読み込む。
// 優先順位はプロセス環境 > .env.local > .env で、既に値のある変数は上書きしない
func LoadEnvFiles(dir string) error {
	var files []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return nil
	}

	// godotenv.Read は後のファイルの値で上書きする
	values, err := godotenv.Read(files...)
	if err != nil {
		return fmt.Errorf(".envファイルの読み込み失敗: %w", err)
	}
	for name, v := range values {
		if os.Getenv(name) != "" {
			continue
		}
		if err := os.Setenv(name, v); err != nil {
			return fmt.Errorf("環境変数 %s の設定失敗: %w", name, err)
		}
	}
	return nil
}

// Load カレントディレクトリの .env を読み込んだうえで設定を組み立てる。keyVar は使用するSupabaseの鍵の変数名
func Load(keyVar string) (*Config, error) {
	if err := LoadEnvFiles("."); err != nil {
		return nil, err
	}
	return FromEnv(keyVar)
}

// FromEnv .env を読まずにプロセス環境だけから設定を組み立てる
func FromEnv(keyVar string) (*Config, error) {
	cfg := &Config{
		SupabaseURL: strings.TrimRight(lookup(EnvSupabaseURL), "/"),
		SupabaseKey: lookup(keyVar),
		KeyName:     keyVar,
	}

	var missing []string
	if cfg.SupabaseURL == "" {
		missing = append(missing, EnvSupabaseURL)
	}
	if cfg.SupabaseKey == "" {
		missing = append(missing, keyVar)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	cfg.DBPassword = os.Getenv(EnvDBPassword)
	cfg.GoogleAPIKey = os.Getenv(EnvGoogleAPIKey)
	cfg.CSVLinksFile = getOrDefault(EnvCSVLinksFile, "csv_links.txt")
	cfg.DownloadDir = getOrDefault(EnvDownloadDir, "temp_csv")
	cfg.StagingBucketURI = os.Getenv(EnvStagingBucketURI)

	if cfg.StagingBucketURI == "" {
		abs, err := filepath.Abs(cfg.DownloadDir)
		if err != nil {
			return nil, fmt.Errorf("ダウンロード先の絶対パス取得失敗: %w", err)
		}
		cfg.StagingBucketURI = "file://" + filepath.ToSlash(abs)
	}

	return cfg, nil
}

// KeyLabel 使用中の鍵の変数名と権限。管理者権限か公開権限かは鍵だけで決まる
func (c *Config) KeyLabel() string {
	if c.KeyName == EnvServiceRoleKey {
		return c.KeyName + " (service role)"
	}
	return c.KeyName + " (anon)"
}

// UsesLocalStaging ステージングがローカルディレクトリを指しているか
func (c *Config) UsesLocalStaging() bool {
	return strings.HasPrefix(c.StagingBucketURI, "file://")
}

// LocalStagingDir file:// のステージング先ディレクトリ。ローカルでなければ空文字
func (c *Config) LocalStagingDir() string {
	if !c.UsesLocalStaging() {
		return ""
	}
	u, err := url.Parse(c.StagingBucketURI)
	if err != nil {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

// UsesDirectPostgres DBパスワードがあればPostgreSQLへ直接接続する
func (c *Config) UsesDirectPostgres() bool {
	return c.DBPassword != ""
}

func lookup(name string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	if alt, ok := fallbacks[name]; ok {
		return os.Getenv(alt)
	}
	return ""
}

func getOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
