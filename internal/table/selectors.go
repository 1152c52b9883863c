package table

// Selector tables used by the ETC1S -> BC1 transcoder. The generated table is
// only meaningful together with these exact tables, in this order.

var defaultRanges = []SelectorRange{
	{0, 3},
	{1, 3},
	{0, 2},
	{1, 2},
	{2, 3},
	{0, 1},
}

var defaultMappings = []SelectorMapping{
	{0, 0, 1, 1},
	{0, 0, 1, 2},
	{0, 0, 1, 3},
	{0, 0, 2, 3},
	{0, 1, 1, 1},
	{0, 1, 2, 2},
	{0, 1, 2, 3},
	{0, 2, 3, 3},
	{1, 2, 2, 2},
	{1, 2, 3, 3},
}

// DefaultLayout returns a copy of the transcoder's selector tables.
func DefaultLayout() Layout {
	return Layout{
		Ranges:   append([]SelectorRange(nil), defaultRanges...),
		Mappings: append([]SelectorMapping(nil), defaultMappings...),
	}
}
