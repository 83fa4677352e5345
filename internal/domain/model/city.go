package model

import "fmt"

// City 市区町村マスター（cities テーブル）
type City struct {
	ID         int    `json:"id" db:"id"`                 // サーバー側で採番されるID
	Prefecture string `json:"prefecture" db:"prefecture"` // 都道府県
	City       string `json:"city" db:"city"`             // 市区町村
}

// NewCity cities テーブルへの挿入用（IDなし）
type NewCity struct {
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
}

// CityKey 都道府県と市区町村の組。差分計算とID解決のキーとして使う
type CityKey struct {
	Prefecture string
	City       string
}

// Key City から CityKey を取り出す
func (c City) Key() CityKey {
	return CityKey{Prefecture: c.Prefecture, City: c.City}
}

// ToNewCity CityKey を挿入用の形式に変換
func (k CityKey) ToNewCity() NewCity {
	return NewCity{Prefecture: k.Prefecture, City: k.City}
}

func (k CityKey) String() string {
	return fmt.Sprintf("%s/%s", k.Prefecture, k.City)
}

// CitySet 市区町村キーの集合
type CitySet map[CityKey]struct{}

// Add キーを集合に追加
func (s CitySet) Add(k CityKey) {
	s[k] = struct{}{}
}

// Has キーが集合に含まれているか
func (s CitySet) Has(k CityKey) bool {
	_, ok := s[k]
	return ok
}

// Difference s に含まれ other に含まれないキーを返す
func (s CitySet) Difference(other CitySet) []CityKey {
	var diff []CityKey
	for k := range s {
		if !other.Has(k) {
			diff = append(diff, k)
		}
	}
	return diff
}
