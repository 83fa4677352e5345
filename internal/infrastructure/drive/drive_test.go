package drive

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "gocloud.dev/blob/memblob"

	"PosterMap-Admin/internal/infrastructure/staging"
)

func TestParseFolderID(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		want    string
		wantErr bool
	}{
		{name: "共有リンク", link: "https://drive.google.com/drive/folders/1AbC_dEf-GhIjKlMn?usp=sharing", want: "1AbC_dEf-GhIjKlMn"},
		{name: "ユーザー付きリンク", link: "https://drive.google.com/drive/u/0/folders/1AbC_dEf-GhIjKlMn", want: "1AbC_dEf-GhIjKlMn"},
		{name: "idパラメータ", link: "https://drive.google.com/open?id=1AbC_dEf-GhIjKlMn", want: "1AbC_dEf-GhIjKlMn"},
		{name: "IDのみ", link: "  1AbC_dEf-GhIjKlMn  ", want: "1AbC_dEf-GhIjKlMn"},
		{name: "空", link: "", wantErr: true},
		{name: "IDのないURL", link: "https://example.com/files", wantErr: true},
		{name: "短すぎるID", link: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFolderID(tt.link)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLinks(t *testing.T) {
	input := `# 東京都
https://drive.google.com/drive/folders/1TokyoFolderId00

https://drive.google.com/drive/folders/1OsakaFolderId00
1TokyoFolderId00
`
	ids, err := ReadLinks(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"1TokyoFolderId00", "1OsakaFolderId00"}, ids)

	_, err = ReadLinks(strings.NewReader("1TokyoFolderId00\nnot a link\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2行目")
}

// fakeLister フォルダ構成をメモリ上に持つ FolderLister
type fakeLister struct {
	folders map[string][]Entry
	files   map[string]string
}

func (f *fakeLister) List(_ context.Context, folderID string) ([]Entry, error) {
	entries, ok := f.folders[folderID]
	if !ok {
		return nil, errors.New("folder not found")
	}
	return entries, nil
}

func (f *fakeLister) Download(_ context.Context, fileID string) (io.ReadCloser, error) {
	body, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func TestDownloader(t *testing.T) {
	ctx := context.Background()

	bucket, err := staging.Open(ctx, "mem://")
	require.NoError(t, err)
	defer bucket.Close()

	lister := &fakeLister{
		folders: map[string][]Entry{
			"root": {
				{ID: "f1", Name: "chuo.csv", MimeType: "text/csv"},
				{ID: "f2", Name: "memo.txt", MimeType: "text/plain"},
				{ID: "sub", Name: "23区", MimeType: FolderMimeType},
			},
			"sub": {
				{ID: "f3", Name: "itabashi.CSV", MimeType: "text/csv"},
			},
		},
		files: map[string]string{
			"f1": "prefecture,city\n東京都,中央区\n",
			"f2": "memo",
			"f3": "prefecture,city\n東京都,板橋区\n",
		},
	}

	d := NewDownloader(lister, bucket, log.New(io.Discard, "", 0))
	keys, err := d.DownloadFolders(ctx, "run-1", []string{"root"})
	require.NoError(t, err)
	assert.Equal(t, []string{"run-1/root/chuo.csv", "run-1/root/23区/itabashi.CSV"}, keys)

	listed, err := bucket.ListCSV(ctx, "run-1/")
	require.NoError(t, err)
	assert.ElementsMatch(t, keys, listed)

	rd, err := bucket.Open(ctx, "run-1/root/23区/itabashi.CSV")
	require.NoError(t, err)
	body, err := io.ReadAll(rd)
	require.NoError(t, err)
	rd.Close()
	assert.Contains(t, string(body), "板橋区")

	_, err = d.DownloadFolders(ctx, "run-2", []string{"missing"})
	assert.Error(t, err)
}
