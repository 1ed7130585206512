package geo

// Coord is a WGS84 latitude/longitude pair in degrees.
type Coord struct {
	Lat float64
	Lng float64
}

// Valid reports whether the pair is within the representable range.
func (c Coord) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// InsideChina reports whether the coordinate falls inside a loose bounding box
// around mainland China. Used to reject overseas matches for Chinese place
// names that collide with same-named locations abroad.
func (c Coord) InsideChina() bool {
	if !c.Valid() {
		return false
	}
	return c.Lat >= 17.5 && c.Lat <= 55.5 && c.Lng >= 72.0 && c.Lng <= 136.5
}
