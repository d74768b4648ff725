package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/jackyeh168/quest_crm/src/internal/domain/shared"
)

// EarthRadiusMeters 地球半徑（公尺）
const EarthRadiusMeters = 6371000.0

// distanceTolerance 浮點誤差容忍（1 微米）
const distanceTolerance = 1e-6

// ErrMalformedCoordinates 座標格式無效
var ErrMalformedCoordinates = shared.NewDomainError(
	shared.KindValidation,
	"MALFORMED_COORDINATES",
	"座標格式無效（需為 \"lat,lng\" 或經緯度組合）",
)

// Point 經緯度座標（度）
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// NewPoint 建立並驗證座標
func NewPoint(lat, lon float64) (Point, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, ErrMalformedCoordinates.WithContext("lat", lat, "lng", lon)
	}
	return Point{Lat: lat, Lon: lon}, nil
}

// String 以 "lat,lng" 表示
func (p Point) String() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// Result 地理圍欄驗證結果
type Result struct {
	IsValid      bool    `json:"isValid"`
	Distance     float64 `json:"distance"`
	Radius       float64 `json:"radius"`
	WithinRadius bool    `json:"withinRadius"`
}

// Distance 以 haversine 公式計算兩點大圓距離（公尺）
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

// VerifyLocation 判斷使用者是否位於目標半徑內
//
// distance == radius 視為有效。無副作用。
func VerifyLocation(user, target Point, radiusMeters float64) Result {
	d := Distance(user, target)
	within := d <= radiusMeters+distanceTolerance
	return Result{
		IsValid:      within,
		Distance:     d,
		Radius:       radiusMeters,
		WithinRadius: within,
	}
}

// VerifyAgainst 與 VerifyLocation 相同，但目標座標可為字串或結構
func VerifyAgainst(user Point, target interface{}, radiusMeters float64) (Result, error) {
	p, err := ResolvePoint(target)
	if err != nil {
		return Result{}, err
	}
	return VerifyLocation(user, p, radiusMeters), nil
}

// ResolvePoint 將多種座標表示轉換為 Point
//
// 支援：
// - "lat,lng" 字串
// - Point / *Point
// - [2]float64、[]float64{lat, lng}
// - map[string]interface{} / map[string]float64（lat/lng、lat/lon 或 latitude/longitude）
func ResolvePoint(v interface{}) (Point, error) {
	switch t := v.(type) {
	case Point:
		return NewPoint(t.Lat, t.Lon)
	case *Point:
		if t == nil {
			return Point{}, ErrMalformedCoordinates.WithContext("reason", "nil point")
		}
		return NewPoint(t.Lat, t.Lon)
	case string:
		return ParsePoint(t)
	case [2]float64:
		return NewPoint(t[0], t[1])
	case []float64:
		if len(t) != 2 {
			return Point{}, ErrMalformedCoordinates.WithContext("reason", "expected 2 values")
		}
		return NewPoint(t[0], t[1])
	case map[string]float64:
		generic := make(map[string]interface{}, len(t))
		for k, val := range t {
			generic[k] = val
		}
		return pointFromMap(generic)
	case map[string]interface{}:
		return pointFromMap(t)
	}
	return Point{}, ErrMalformedCoordinates.WithContext("reason", "unsupported coordinate type")
}

// ParsePoint 解析 "lat,lng" 字串
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Point{}, ErrMalformedCoordinates.WithContext("input", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, ErrMalformedCoordinates.WithContext("input", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, ErrMalformedCoordinates.WithContext("input", s)
	}
	return NewPoint(lat, lon)
}

func pointFromMap(m map[string]interface{}) (Point, error) {
	lat, okLat := firstNumber(m, "lat", "latitude")
	lon, okLon := firstNumber(m, "lng", "lon", "longitude")
	if !okLat || !okLon {
		return Point{}, ErrMalformedCoordinates.WithContext("reason", "missing lat/lng keys")
	}
	return NewPoint(lat, lon)
}

func firstNumber(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		switch n := raw.(type) {
		case float64:
			return n, true
		case float32:
			return float64(n), true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			if err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
