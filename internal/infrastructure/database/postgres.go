package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/lib/pq"
)

// ローカルの supabase start で立ち上がるPostgreSQL
const localPostgresPort = 54322

// PostgreSQLClient PostgreSQL直接接続クライアント
type PostgreSQLClient struct {
	DB *sql.DB
}

// BuildPostgresDSN SupabaseのプロジェクトURLから接続文字列を組み立てる
//
//	http://localhost:54321      -> localhost:54322 (sslmode=disable)
//	https://<ref>.supabase.co   -> db.<ref>.supabase.co:5432 (sslmode=require)
func BuildPostgresDSN(supabaseURL, password string) (string, error) {
	u, err := url.Parse(supabaseURL)
	if err != nil {
		return "", fmt.Errorf("SupabaseのURL解析に失敗: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("SupabaseのURLにホスト名がありません: %s", supabaseURL)
	}

	if host == "localhost" || host == "127.0.0.1" {
		if password == "" {
			password = "postgres"
		}
		return fmt.Sprintf(
			"host=%s port=%d user=postgres password=%s dbname=postgres sslmode=disable",
			host, localPostgresPort, quoteDSNValue(password),
		), nil
	}

	if password == "" {
		return "", fmt.Errorf("クラウド環境への接続にはDBパスワードが必要です")
	}
	return fmt.Sprintf(
		"host=db.%s port=5432 user=postgres password=%s dbname=postgres sslmode=require",
		host, quoteDSNValue(password),
	), nil
}

// NewPostgreSQLClient 新しいPostgreSQLクライアントを作成。接続確認は HealthCheck で行う
func NewPostgreSQLClient(supabaseURL, password string) (*PostgreSQLClient, error) {
	connStr, err := BuildPostgresDSN(supabaseURL, password)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("PostgreSQL接続の初期化に失敗: %w", err)
	}

	return &PostgreSQLClient{
		DB: db,
	}, nil
}

// Close データベース接続を閉じる
func (pc *PostgreSQLClient) Close() error {
	if pc.DB != nil {
		return pc.DB.Close()
	}
	return nil
}

// HealthCheck データベース接続のヘルスチェック
func (pc *PostgreSQLClient) HealthCheck(ctx context.Context) error {
	if pc.DB == nil {
		return fmt.Errorf("PostgreSQLクライアントが初期化されていません")
	}
	return pc.DB.PingContext(ctx)
}

// quoteDSNValue key=value 形式の値をクォートする
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
