package csvsource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jszwec/csvutil"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"PosterMap-Admin/internal/domain/helper"
	"PosterMap-Admin/internal/domain/model"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// requiredColumns ヘッダーに必須の列
var requiredColumns = []string{"prefecture", "city", "number", "lat", "long"}

// csvRecord 掲示場CSVの1行。status は任意列
type csvRecord struct {
	Prefecture string `csv:"prefecture"`
	City       string `csv:"city"`
	Number     string `csv:"number"`
	Address    string `csv:"address"`
	Name       string `csv:"name"`
	Lat        string `csv:"lat"`
	Long       string `csv:"long"`
	Note       string `csv:"note"`
	Status     string `csv:"status"`
}

// Rejection 取り込めなかった行
type Rejection struct {
	Source string `csv:"source"`
	Line   int    `csv:"line"`
	Reason string `csv:"reason"`
}

// pinKey 同一掲示場の判定キー
type pinKey struct {
	city   model.CityKey
	number string
}

// Dataset 複数のCSVファイルから集めた掲示場データ
type Dataset struct {
	Pins     []model.PinRow
	Cities   model.CitySet
	Rejected []Rejection
	Files    int

	seen map[pinKey]model.PinRow
}

func NewDataset() *Dataset {
	return &Dataset{
		Cities: make(model.CitySet),
		seen:   make(map[pinKey]model.PinRow),
	}
}

func (d *Dataset) add(row model.PinRow) *Rejection {
	key := pinKey{city: row.CityKey(), number: row.Number}
	if first, dup := d.seen[key]; dup {
		return &Rejection{
			Source: row.Source,
			Line:   row.Line,
			Reason: fmt.Sprintf("重複: %s 番号%s は %s:%d で読み込み済み", key.city, row.Number, first.Source, first.Line),
		}
	}
	d.seen[key] = row
	d.Pins = append(d.Pins, row)
	d.Cities.Add(row.CityKey())
	return nil
}

// Loader 掲示場CSVを読み込む
type Loader struct {
	logger *log.Logger
}

func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{logger: logger}
}

// Parse 1ファイル分のCSVを読み込み ds に追加する。
// 行単位の不備は Rejected に積み、ファイル全体が読めない場合のみエラーを返す
func (l *Loader) Parse(name string, r io.Reader, ds *Dataset) error {
	body, err := decodeBody(r)
	if err != nil {
		return fmt.Errorf("%s の読み込み失敗: %w", name, err)
	}

	cr := csv.NewReader(bytes.NewReader(body))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			l.logger.Printf("⚠️  %s は空のファイルです", name)
			ds.Files++
			return nil
		}
		return fmt.Errorf("%s のヘッダー読み込み失敗: %w", name, err)
	}
	header = normalizeHeader(header)

	if missing := missingColumns(header); len(missing) > 0 {
		return fmt.Errorf("%s に必須列がありません: %s", name, strings.Join(missing, ", "))
	}

	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return fmt.Errorf("%s のデコーダー作成失敗: %w", name, err)
	}

	ds.Files++
	accepted, rejected := 0, 0
	for {
		var rec csvRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		line := recordLine(cr, err)

		var rej *Rejection
		if err != nil {
			rej = &Rejection{Source: name, Line: line, Reason: fmt.Sprintf("行の解析失敗: %v", err)}
		} else {
			row, reason := toPinRow(rec)
			if reason != "" {
				rej = &Rejection{Source: name, Line: line, Reason: reason}
			} else {
				row.Source = name
				row.Line = line
				if !helper.InJapan(row.Lat, row.Long) {
					l.logger.Printf("⚠️  %s:%d 座標 (%.6f, %.6f) が日本の範囲外です", name, line, row.Lat, row.Long)
				}
				rej = ds.add(row)
			}
		}

		if rej != nil {
			rejected++
			ds.Rejected = append(ds.Rejected, *rej)
			l.logger.Printf("⚠️  %s:%d をスキップ: %s", rej.Source, rej.Line, rej.Reason)
			continue
		}
		accepted++
	}

	l.logger.Printf("📄 %s: %d件読み込み, %d件スキップ", name, accepted, rejected)
	return nil
}

// recordLine 直前に読んだレコードの開始行。空行や複数行にまたがる引用も反映される
func recordLine(cr *csv.Reader, err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.StartLine
	}
	line, _ := cr.FieldPos(0)
	return line
}

// WriteRejections スキップした行をCSVとして書き出す
func WriteRejections(w io.Writer, rejected []Rejection) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rejected) == 0 {
		if err := enc.EncodeHeader(Rejection{}); err != nil {
			return fmt.Errorf("スキップ一覧のヘッダー書き込み失敗: %w", err)
		}
	}
	for _, r := range rejected {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("スキップ一覧の書き込み失敗: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func toPinRow(rec csvRecord) (model.PinRow, string) {
	row := model.PinRow{
		Prefecture: normalize(rec.Prefecture),
		City:       normalize(rec.City),
		Number:     normalize(rec.Number),
		Address:    normalize(rec.Address),
		PlaceName:  normalize(rec.Name),
		Note:       strings.TrimSpace(rec.Note),
	}

	if row.Prefecture == "" || row.City == "" {
		return row, "都道府県または市区町村が空です"
	}
	if row.Number == "" {
		return row, "掲示場番号が空です"
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(rec.Lat), 64)
	if err != nil {
		return row, fmt.Sprintf("緯度が数値ではありません: %q", rec.Lat)
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(rec.Long), 64)
	if err != nil {
		return row, fmt.Sprintf("経度が数値ではありません: %q", rec.Long)
	}
	if !helper.ValidCoordinate(lat, long) {
		return row, fmt.Sprintf("座標が範囲外です: (%v, %v)", lat, long)
	}
	row.Lat, row.Long = lat, long

	status, err := model.ParsePinStatusString(rec.Status)
	if err != nil {
		return row, err.Error()
	}
	row.Status = status

	return row, ""
}

// decodeBody BOMを除去し、UTF-8でなければShift_JISとして読み直す
func decodeBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimPrefix(body, utf8BOM)
	if utf8.Valid(body) {
		return body, nil
	}

	decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), body)
	if err != nil {
		return nil, fmt.Errorf("Shift_JISのデコード失敗: %w", err)
	}
	return decoded, nil
}

// normalize 全角英数字・半角カナの揺れをNFKCで揃える
func normalize(s string) string {
	return strings.TrimSpace(norm.NFKC.String(strings.TrimSpace(s)))
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, c := range requiredColumns {
		if !present[c] {
			missing = append(missing, c)
		}
	}
	return missing
}
