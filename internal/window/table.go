package window

// TableRow is one magnitude band of the discrete Gardner-Knopoff table
type TableRow struct {
	Magnitude float64 // Lower bound of the band
	Window
}

// GardnerKnopoffTable lists the tabulated windows, highest band first.
var GardnerKnopoffTable = []TableRow{
	{7.0, Window{70.0, 985}},
	{6.5, Window{61.0, 960}},
	{6.0, Window{54.0, 915}},
	{5.5, Window{47.0, 790}},
	{5.0, Window{40.0, 510}},
	{4.5, Window{35.0, 290}},
	{4.0, Window{30.0, 155}},
	{3.5, Window{26.0, 83}},
	{3.0, Window{22.5, 42}},
	{2.5, Window{19.5, 22}},
}

// Table returns the row for the highest band not exceeding magnitude.
// Magnitudes below the last band use the last band.
func Table(magnitude float64) Window {
	for _, row := range GardnerKnopoffTable {
		if magnitude >= row.Magnitude {
			return row.Window
		}
	}
	return GardnerKnopoffTable[len(GardnerKnopoffTable)-1].Window
}
