package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/google/uuid"

	"PosterMap-Admin/internal/infrastructure/csvsource"
)

// ErrNoCSV ダウンロード結果にCSVが1件もない
var ErrNoCSV = errors.New("取り込み対象のCSVがありません")

// rejectedPrefix スキップ一覧の保存先。実行ごとの一時領域とは分けて残す
const rejectedPrefix = "rejected"

// FolderDownloader Driveフォルダ内のCSVをステージングへ保存する
type FolderDownloader interface {
	DownloadFolders(ctx context.Context, prefix string, folderIDs []string) ([]string, error)
}

// StagingStore ダウンロードしたCSVの一時保管先
type StagingStore interface {
	Write(ctx context.Context, key string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	ListCSV(ctx context.Context, prefix string) ([]string, error)
	Purge(ctx context.Context, prefix string) (int, error)
}

// IntegrateResult 一括取り込みの結果
type IntegrateResult struct {
	RunID       string
	Files       int
	Rows        int
	Rejected    int
	RejectedKey string
	Cities      *CitySyncResult
	Uploaded    int
}

// IntegrateService Driveのダウンロードから市区町村・掲示場の同期までを順に実行する
type IntegrateService interface {
	Run(ctx context.Context, folderIDs []string) (*IntegrateResult, error)
}

type integrateServiceImpl struct {
	downloader FolderDownloader
	store      StagingStore
	loader     *csvsource.Loader
	cities     CitySyncService
	pins       PinSyncService
	logger     *log.Logger
}

func NewIntegrateService(
	downloader FolderDownloader,
	store StagingStore,
	loader *csvsource.Loader,
	cities CitySyncService,
	pins PinSyncService,
	logger *log.Logger,
) IntegrateService {
	if logger == nil {
		logger = log.Default()
	}
	return &integrateServiceImpl{
		downloader: downloader,
		store:      store,
		loader:     loader,
		cities:     cities,
		pins:       pins,
		logger:     logger,
	}
}

func (s *integrateServiceImpl) Run(ctx context.Context, folderIDs []string) (result *IntegrateResult, err error) {
	runID := uuid.New().String()
	result = &IntegrateResult{RunID: runID}
	s.logger.Printf("🚀 取り込みを開始します (run=%s, フォルダ%d件)", runID, len(folderIDs))

	defer func() {
		// 成否にかかわらず一時ファイルは消す
		n, purgeErr := s.store.Purge(context.WithoutCancel(ctx), runID+"/")
		if purgeErr != nil {
			s.logger.Printf("⚠️  一時ファイルの削除失敗: %v", purgeErr)
			return
		}
		s.logger.Printf("🧹 一時ファイル%d件を削除しました", n)
	}()

	if _, err := s.downloader.DownloadFolders(ctx, runID, folderIDs); err != nil {
		return result, fmt.Errorf("CSVファイルのダウンロード失敗: %w", err)
	}

	ds, err := s.load(ctx, runID)
	if err != nil {
		return result, err
	}
	result.Files = ds.Files
	result.Rows = len(ds.Pins)
	result.Rejected = len(ds.Rejected)
	s.logger.Printf("📄 CSV %d件から掲示場%d件・市区町村%d件を読み込みました (スキップ%d件)",
		ds.Files, len(ds.Pins), len(ds.Cities), len(ds.Rejected))

	if len(ds.Rejected) > 0 {
		key, err := s.saveRejections(ctx, runID, ds.Rejected)
		if err != nil {
			return result, err
		}
		result.RejectedKey = key
		s.logger.Printf("⚠️  スキップした行の一覧: %s", key)
	}

	cities, err := s.cities.Sync(ctx, ds.Cities)
	if err != nil {
		return result, err
	}
	result.Cities = cities

	uploaded, err := s.pins.Sync(ctx, ds.Pins)
	result.Uploaded = uploaded
	if err != nil {
		return result, err
	}

	return result, nil
}

func (s *integrateServiceImpl) load(ctx context.Context, runID string) (*csvsource.Dataset, error) {
	keys, err := s.store.ListCSV(ctx, runID+"/")
	if err != nil {
		return nil, fmt.Errorf("ダウンロードしたCSVの一覧取得失敗: %w", err)
	}
	if len(keys) == 0 {
		return nil, ErrNoCSV
	}

	ds := csvsource.NewDataset()
	for _, key := range keys {
		if err := s.parse(ctx, key, ds); err != nil {
			return nil, err
		}
	}
	if len(ds.Pins) == 0 {
		return nil, fmt.Errorf("%w: 有効な行が1件もありません", ErrNoCSV)
	}
	return ds, nil
}

func (s *integrateServiceImpl) parse(ctx context.Context, key string, ds *csvsource.Dataset) error {
	rd, err := s.store.Open(ctx, key)
	if err != nil {
		return err
	}
	defer rd.Close()

	return s.loader.Parse(key, rd, ds)
}

func (s *integrateServiceImpl) saveRejections(ctx context.Context, runID string, rejected []csvsource.Rejection) (string, error) {
	var buf bytes.Buffer
	if err := csvsource.WriteRejections(&buf, rejected); err != nil {
		return "", err
	}

	key := path.Join(rejectedPrefix, runID+".csv")
	if _, err := s.store.Write(ctx, key, &buf); err != nil {
		return "", fmt.Errorf("スキップ一覧の保存失敗: %w", err)
	}
	return key, nil
}
