package drive

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	folderPathPattern = regexp.MustCompile(`/folders/([A-Za-z0-9_-]+)`)
	bareIDPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)
)

// ParseFolderID 共有リンク（/drive/folders/<id>, ?id=<id>）またはIDそのものからフォルダIDを取り出す
func ParseFolderID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("フォルダリンクが空です")
	}

	if m := folderPathPattern.FindStringSubmatch(link); m != nil {
		return m[1], nil
	}

	if u, err := url.Parse(link); err == nil && u.Host != "" {
		if id := u.Query().Get("id"); id != "" && bareIDPattern.MatchString(id) {
			return id, nil
		}
		return "", fmt.Errorf("フォルダIDを取り出せません: %s", link)
	}

	if bareIDPattern.MatchString(link) {
		return link, nil
	}
	return "", fmt.Errorf("フォルダIDを取り出せません: %s", link)
}

// ReadLinks 1行1リンクのファイルからフォルダIDを読み込む。空行と # で始まる行は無視する
func ReadLinks(r io.Reader) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, err := ParseFolderID(line)
		if err != nil {
			return nil, fmt.Errorf("%d行目: %w", lineNo, err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("リンクファイルの読み込み失敗: %w", err)
	}
	return ids, nil
}

// ReadLinksFile path のリンクファイルを読み込む
func ReadLinksFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("リンクファイル %s を開けません: %w", path, err)
	}
	defer f.Close()
	return ReadLinks(f)
}
