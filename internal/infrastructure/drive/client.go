package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// FolderMimeType Google Driveのフォルダを表すMIMEタイプ
const FolderMimeType = "application/vnd.google-apps.folder"

const listFields = "nextPageToken, files(id, name, mimeType, size)"

// Entry フォルダ内のファイルまたはサブフォルダ
type Entry struct {
	ID       string
	Name     string
	MimeType string
}

func (e Entry) IsFolder() bool {
	return e.MimeType == FolderMimeType
}

// FolderLister Driveフォルダの一覧取得とファイルのダウンロード
type FolderLister interface {
	List(ctx context.Context, folderID string) ([]Entry, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Client Google Drive API v3 クライアント
type Client struct {
	service *gdrive.Service
}

// NewClient apiKey が空の場合はApplication Default Credentialsを使う
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	var opts []option.ClientOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	srv, err := gdrive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("Google Driveクライアントの作成失敗: %w", err)
	}
	return &Client{service: srv}, nil
}

func (c *Client) List(ctx context.Context, folderID string) ([]Entry, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", folderID)

	var entries []Entry
	pageToken := ""
	for {
		call := c.service.Files.List().
			Q(q).
			Fields(listFields).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			PageSize(1000).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("フォルダ %s の一覧取得失敗: %w", folderID, err)
		}
		for _, f := range res.Files {
			entries = append(entries, Entry{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
		}

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}
	return entries, nil
}

func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := c.service.Files.Get(fileID).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, fmt.Errorf("ファイル %s のダウンロード失敗: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ファイル %s のダウンロード失敗: status %d", fileID, resp.StatusCode)
	}
	return resp.Body, nil
}
