package graph

import "math"

const (
	// PropagationMsPerKm is the one-way light-in-fiber propagation delay.
	PropagationMsPerKm = 0.0049

	// DefaultTerrestrialFactor converts straight-line distance into a
	// realistic terrestrial cable route distance.
	DefaultTerrestrialFactor = 1.4

	// DefaultSubmarineFactor is the route-circuity multiplier for undersea
	// cable systems, which tend to run closer to the great circle.
	DefaultSubmarineFactor = 1.2

	earthRadiusKm = 6371.0
)

// LatencyEstimate is the outcome of a geographic latency calculation.
type LatencyEstimate struct {
	DistanceKm  float64 `json:"distance_km"`
	RouteKm     float64 `json:"route_km"`
	OneWayMs    float64 `json:"one_way_ms"`
	RoundTripMs float64 `json:"round_trip_ms"`
}

/*
EstimateLatency computes a great-circle (haversine) distance between two
coordinates, stretches it by the route-circuity factor, and converts the
result to milliseconds at the fixed propagation constant. Identical
coordinates yield a zero estimate. A non-positive factor falls back to the
terrestrial default.
*/
func EstimateLatency(lat1, lon1, lat2, lon2, routeFactor float64) LatencyEstimate {
	if routeFactor <= 0 {
		routeFactor = DefaultTerrestrialFactor
	}

	distance := HaversineKm(lat1, lon1, lat2, lon2)
	route := distance * routeFactor
	oneWay := route * PropagationMsPerKm

	return LatencyEstimate{
		DistanceKm:  distance,
		RouteKm:     route,
		OneWayMs:    oneWay,
		RoundTripMs: oneWay * 2,
	}
}

// HaversineKm returns the great-circle distance between two coordinates in
// kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
