package models

// Point is a single coordinate pair. For geographic data Lon/Lat are WGS84
// degrees; for projected data they hold the planar x/y values. Which one
// applies is decided by the caller via the distance metric, never guessed
// from the values themselves.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}
