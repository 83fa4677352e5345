package helper

import (
	"math"

	"github.com/paulmach/orb"
)

// worldBound 緯度経度として有効な範囲
var worldBound = orb.Bound{
	Min: orb.Point{-180, -90},
	Max: orb.Point{180, 90},
}

// japanBound 日本の領域（南鳥島・与那国島・択捉島を含むおおよその範囲）
var japanBound = orb.Bound{
	Min: orb.Point{122.9, 20.4},
	Max: orb.Point{154.0, 45.6},
}

// ToPoint 緯度経度を orb.Point（経度, 緯度の順）に変換
func ToPoint(lat, long float64) orb.Point {
	return orb.Point{long, lat}
}

// ValidCoordinate 緯度経度が数値として有効な範囲にあるか
func ValidCoordinate(lat, long float64) bool {
	if math.IsNaN(lat) || math.IsNaN(long) || math.IsInf(lat, 0) || math.IsInf(long, 0) {
		return false
	}
	return worldBound.Contains(ToPoint(lat, long))
}

// InJapan 緯度経度が日本の範囲内にあるか。緯度と経度を取り違えたデータの検出に使う
func InJapan(lat, long float64) bool {
	return japanBound.Contains(ToPoint(lat, long))
}
