package geo_test

import (
	"math"
	"testing"

	"github.com/jackyeh168/quest_crm/src/internal/domain/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// northOf 沿經線向北移動 meters 公尺
func northOf(p geo.Point, meters float64) geo.Point {
	dLat := meters / geo.EarthRadiusMeters * 180 / math.Pi
	return geo.Point{Lat: p.Lat + dLat, Lon: p.Lon}
}

var bangkok = geo.Point{Lat: 13.7563, Lon: 100.5018}

func TestDistance_SamePoint_IsZero(t *testing.T) {
	assert.Equal(t, 0.0, geo.Distance(bangkok, bangkok))
}

func TestDistance_AlongMeridian_MatchesArcLength(t *testing.T) {
	// Arrange
	user := northOf(bangkok, 250)

	// Act
	d := geo.Distance(user, bangkok)

	// Assert
	assert.InDelta(t, 250.0, d, 1e-6)
}

func TestVerifyLocation_Within90Meters_IsValid(t *testing.T) {
	result := geo.VerifyLocation(northOf(bangkok, 90), bangkok, 100)

	assert.True(t, result.IsValid)
	assert.True(t, result.WithinRadius)
	assert.InDelta(t, 90.0, result.Distance, 1e-6)
	assert.Equal(t, 100.0, result.Radius)
}

func TestVerifyLocation_At110Meters_IsInvalid(t *testing.T) {
	result := geo.VerifyLocation(northOf(bangkok, 110), bangkok, 100)

	assert.False(t, result.IsValid)
	assert.InDelta(t, 110.0, result.Distance, 1e-6)
}

func TestVerifyLocation_ExactBoundary(t *testing.T) {
	// Arrange
	user := northOf(bangkok, 100)
	d := geo.Distance(user, bangkok)

	// Act & Assert: distance == radius 有效
	assert.True(t, geo.VerifyLocation(user, bangkok, d).IsValid)

	// radius 比距離少 0.01 公尺（等同使用者在 radius+0.01）無效
	assert.False(t, geo.VerifyLocation(user, bangkok, d-0.01).IsValid)
}

func TestResolvePoint_AcceptsSupportedShapes(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"字串", "13.7563,100.5018"},
		{"含空白字串", " 13.7563 , 100.5018 "},
		{"Point", bangkok},
		{"*Point", &bangkok},
		{"陣列", [2]float64{13.7563, 100.5018}},
		{"切片", []float64{13.7563, 100.5018}},
		{"lat/lng map", map[string]interface{}{"lat": 13.7563, "lng": 100.5018}},
		{"latitude/longitude map", map[string]float64{"latitude": 13.7563, "longitude": 100.5018}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := geo.ResolvePoint(tt.input)

			require.NoError(t, err)
			assert.InDelta(t, 13.7563, p.Lat, 1e-9)
			assert.InDelta(t, 100.5018, p.Lon, 1e-9)
		})
	}
}

func TestResolvePoint_Malformed_ReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"單一數字", "13.7563"},
		{"非數字", "abc,def"},
		{"緯度超出範圍", "95,100"},
		{"缺少鍵", map[string]interface{}{"x": 1.0}},
		{"不支援類型", 42},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := geo.ResolvePoint(tt.input)

			assert.ErrorIs(t, err, geo.ErrMalformedCoordinates)
		})
	}
}

func TestVerifyAgainst_StringTarget(t *testing.T) {
	result, err := geo.VerifyAgainst(northOf(bangkok, 50), "13.7563,100.5018", 100)

	require.NoError(t, err)
	assert.True(t, result.IsValid)
}
