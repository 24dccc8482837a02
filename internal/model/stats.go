package model

// Stats column names as written by the engine.
const (
	ColStaticallyCompressed  = "statically_compressed"
	ColDynamicallyCompressed = "dynamically_compressed"
	ColEffectivelyCompressed = "effectively_compressed"
	ColCompressed            = "compressed"
	ColMemory                = "memory"
	ColLearningSensitivity   = "learning_sensitivity"
	ColAggressiveness        = "aggressiveness"
	ColTolerance             = "tolerance"
	ColLossiness             = "lossiness"
	ColOverwhelm             = "overwhelm"
	ColCuriosity             = "curiosity"
	ColCoreCount             = "core_count"
	ColInterconnectCount     = "interconnect_count"
)

// StatsColumns lists every column a stats file must carry.
var StatsColumns = []string{
	ColStaticallyCompressed,
	ColDynamicallyCompressed,
	ColEffectivelyCompressed,
	ColCompressed,
	ColMemory,
	ColLearningSensitivity,
	ColAggressiveness,
	ColTolerance,
	ColLossiness,
	ColOverwhelm,
	ColCuriosity,
	ColCoreCount,
	ColInterconnectCount,
}

// StatsSnapshot is the full time series of engine metrics, one sample per
// iteration.
type StatsSnapshot struct {
	Rows    int
	Columns map[string][]float64
}

// Series returns the samples of the named column.
func (s *StatsSnapshot) Series(name string) ([]float64, bool) {
	v, ok := s.Columns[name]
	return v, ok
}
