package service

import "math"

const earthRadiusMeters = 6371000.0

// Distance возвращает расстояние по дуге большого круга между двумя точками (метры)
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// WithinGeofence проверяет, находится ли точка в радиусе от центра
func WithinGeofence(centerLat, centerLng float64, radius int, lat, lng float64) (bool, float64) {
	d := Distance(centerLat, centerLng, lat, lng)
	return d <= float64(radius), d
}
