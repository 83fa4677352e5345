package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aaronland/gocloud-blob/bucket"
	"gocloud.dev/blob"
)

// Bucket ダウンロードしたCSVを一時保管するバケット
type Bucket struct {
	bucket *blob.Bucket
}

// Open GoCloud blob URI（file:///path/to/temp_csv, mem:// など）を開く
func Open(ctx context.Context, uri string) (*Bucket, error) {
	b, err := bucket.OpenBucket(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("ステージングバケット %s のオープン失敗: %w", uri, err)
	}
	return &Bucket{bucket: b}, nil
}

// Close バケットを閉じる
func (b *Bucket) Close() error {
	return b.bucket.Close()
}

// Write r の内容を key に保存し、書き込んだバイト数を返す
func (b *Bucket) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	wr, err := b.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return 0, fmt.Errorf("%s の書き込み準備失敗: %w", key, err)
	}

	n, err := io.Copy(wr, r)
	if err != nil {
		wr.Close()
		return 0, fmt.Errorf("%s の書き込み失敗: %w", key, err)
	}

	if err := wr.Close(); err != nil {
		return 0, fmt.Errorf("%s の書き込み完了失敗: %w", key, err)
	}
	return n, nil
}

// Open key を読み込み用に開く
func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rd, err := b.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%s のオープン失敗: %w", key, err)
	}
	return rd, nil
}

// ListCSV prefix 以下の .csv のキーをすべて返す
func (b *Bucket) ListCSV(ctx context.Context, prefix string) ([]string, error) {
	keys, err := b.list(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var csvKeys []string
	for _, k := range keys {
		if strings.EqualFold(path.Ext(k), ".csv") {
			csvKeys = append(csvKeys, k)
		}
	}
	return csvKeys, nil
}

// Purge prefix 以下のオブジェクトをすべて削除し、削除件数を返す
func (b *Bucket) Purge(ctx context.Context, prefix string) (int, error) {
	keys, err := b.list(ctx, prefix)
	if err != nil {
		return 0, err
	}

	for _, k := range keys {
		if err := b.bucket.Delete(ctx, k); err != nil {
			return 0, fmt.Errorf("%s の削除失敗: %w", k, err)
		}
	}
	return len(keys), nil
}

func (b *Bucket) list(ctx context.Context, prefix string) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s 以下の一覧取得失敗: %w", prefix, err)
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
