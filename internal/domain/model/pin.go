package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PinStatus 掲示場の確認ステータス
type PinStatus int

const (
	PinStatusUnconfirmed PinStatus = 0 // 未確認
	PinStatusDone        PinStatus = 1 // 完了
	PinStatusNeedsReview PinStatus = 4 // 要確認
)

// PinStatusNameMap ステータスから日本語名へのマッピング
var PinStatusNameMap = map[PinStatus]string{
	PinStatusUnconfirmed: "未確認",
	PinStatusDone:        "完了",
	PinStatusNeedsReview: "要確認",
}

// Valid 定義済みのステータスかどうか
func (s PinStatus) Valid() bool {
	_, ok := PinStatusNameMap[s]
	return ok
}

func (s PinStatus) String() string {
	if name, ok := PinStatusNameMap[s]; ok {
		return name
	}
	return fmt.Sprintf("PinStatus(%d)", int(s))
}

// ParsePinStatus 整数値をステータスに変換する。未定義の値はエラー
func ParsePinStatus(v int) (PinStatus, error) {
	s := PinStatus(v)
	if !s.Valid() {
		return 0, fmt.Errorf("未定義のステータス値です: %d", v)
	}
	return s, nil
}

// ParsePinStatusString CSVのステータス列を解析する。空文字は未確認として扱う
func ParsePinStatusString(raw string) (PinStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PinStatusUnconfirmed, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("ステータス値が数値ではありません: %q", raw)
	}
	return ParsePinStatus(v)
}

func (s PinStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("未定義のステータス値です: %d", int(s))
	}
	return json.Marshal(int(s))
}

func (s *PinStatus) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("ステータスのJSONアンマーシャル失敗: %w", err)
	}
	parsed, err := ParsePinStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Pin ポスター掲示場（pins テーブル）
type Pin struct {
	ID        int       `json:"id" db:"id"`                 // サーバー側で採番されるID
	Number    string    `json:"number" db:"number"`         // 掲示場番号
	Address   string    `json:"address" db:"address"`       // 住所
	PlaceName string    `json:"place_name" db:"place_name"` // 設置場所名
	Lat       float64   `json:"lat" db:"lat"`               // 緯度
	Long      float64   `json:"long" db:"long"`             // 経度
	Status    PinStatus `json:"status" db:"status"`         // ステータス
	Note      *string   `json:"note" db:"note"`             // 備考（NULLABLE）
	CityID    int       `json:"city_id" db:"city_id"`       // cities.id
}

// NewPin pins テーブルへの挿入用（IDなし）
type NewPin struct {
	Number    string    `json:"number"`
	Address   string    `json:"address"`
	PlaceName string    `json:"place_name"`
	Lat       float64   `json:"lat"`
	Long      float64   `json:"long"`
	Status    PinStatus `json:"status"`
	Note      *string   `json:"note"`
	CityID    int       `json:"city_id"`
}

// GetNote 備考が存在する場合は値を、存在しない場合は空文字列を返す
func (p *Pin) GetNote() string {
	if p.Note != nil {
		return *p.Note
	}
	return ""
}

// NoteOrNil 空文字列を nil に変換する
func NoteOrNil(note string) *string {
	if strings.TrimSpace(note) == "" {
		return nil
	}
	return &note
}

// PinRow CSVから読み込んだ1行分の掲示場データ（city_id 解決前）
type PinRow struct {
	Prefecture string
	City       string
	Number     string
	Address    string
	PlaceName  string
	Lat        float64
	Long       float64
	Status     PinStatus
	Note       string
	Source     string // 読み込み元のファイル
	Line       int    // 読み込み元の行番号
}

// CityKey 行が属する市区町村キー
func (r PinRow) CityKey() CityKey {
	return CityKey{Prefecture: r.Prefecture, City: r.City}
}

// ToNewPin 解決済みの city_id で挿入用データを作成
func (r PinRow) ToNewPin(cityID int) NewPin {
	return NewPin{
		Number:    r.Number,
		Address:   r.Address,
		PlaceName: r.PlaceName,
		Lat:       r.Lat,
		Long:      r.Long,
		Status:    r.Status,
		Note:      NoteOrNil(r.Note),
		CityID:    cityID,
	}
}
