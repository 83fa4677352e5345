package drive

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"PosterMap-Admin/internal/infrastructure/staging"
)

// Downloader 共有フォルダ配下のCSVをステージングバケットへ保存する
type Downloader struct {
	lister FolderLister
	bucket *staging.Bucket
	logger *log.Logger
}

func NewDownloader(lister FolderLister, bucket *staging.Bucket, logger *log.Logger) *Downloader {
	if logger == nil {
		logger = log.Default()
	}
	return &Downloader{lister: lister, bucket: bucket, logger: logger}
}

// DownloadFolders 各フォルダを再帰的に辿り、CSVを <prefix>/<folderID>/<相対パス> に保存する。
// 保存したキーを返す
func (d *Downloader) DownloadFolders(ctx context.Context, prefix string, folderIDs []string) ([]string, error) {
	var keys []string
	for _, id := range folderIDs {
		d.logger.Printf("📥 フォルダ %s をダウンロード中...", id)
		got, err := d.walk(ctx, id, path.Join(prefix, id))
		if err != nil {
			return nil, err
		}
		d.logger.Printf("✅ フォルダ %s: CSV %d件", id, len(got))
		keys = append(keys, got...)
	}
	return keys, nil
}

func (d *Downloader) walk(ctx context.Context, folderID, dir string) ([]string, error) {
	entries, err := d.lister.List(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if e.IsFolder() {
			sub, err := d.walk(ctx, e.ID, path.Join(dir, safeName(e.Name)))
			if err != nil {
				return nil, err
			}
			keys = append(keys, sub...)
			continue
		}

		if !strings.EqualFold(path.Ext(e.Name), ".csv") {
			continue
		}

		key := path.Join(dir, safeName(e.Name))
		if err := d.save(ctx, e.ID, key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (d *Downloader) save(ctx context.Context, fileID, key string) error {
	body, err := d.lister.Download(ctx, fileID)
	if err != nil {
		return err
	}
	defer body.Close()

	n, err := d.bucket.Write(ctx, key, body)
	if err != nil {
		return fmt.Errorf("%s の保存失敗: %w", key, err)
	}
	d.logger.Printf("  %s (%d bytes)", key, n)
	return nil
}

// safeName パス区切りを含むファイル名をキーとして安全な形にする
func safeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
