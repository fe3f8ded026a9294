package feature

// CropInput holds the soil and climate readings for crop recommendation.
type CropInput struct {
	Nitrogen    float64
	Phosphorus  float64
	Potassium   float64
	Temperature float64
	Humidity    float64
	PH          float64
	Rainfall    float64
}

// CropVector is the crop model's input row in training order.
type CropVector [7]float64

// CropColumns names the positions of CropVector.
var CropColumns = []string{"N", "P", "K", "temperature", "humidity", "ph", "rainfall"}

func EncodeCrop(in CropInput) CropVector {
	return CropVector{
		in.Nitrogen,
		in.Phosphorus,
		in.Potassium,
		in.Temperature,
		in.Humidity,
		in.PH,
		in.Rainfall,
	}
}

func (v CropVector) Columns() []string {
	out := make([]string, len(CropColumns))
	copy(out, CropColumns)
	return out
}

func (v CropVector) Values() []float64 {
	out := make([]float64, len(v))
	copy(out, v[:])
	return out
}

// FertilizerInput holds readings plus the two categorical fields for fertilizer
// recommendation.
type FertilizerInput struct {
	Temperature float64
	Humidity    float64
	Moisture    float64
	Nitrogen    float64
	Potassium   float64
	Phosphorous float64
	SoilType    string
	CropType    string
}

const (
	SoilPrefix = "Soil Type_"
	CropPrefix = "Crop Type_"
)

// Category vocabularies, in training column order.
var (
	SoilTypes = []string{"Black", "Clayey", "Loamy", "Red", "Sandy"}
	CropTypes = []string{
		"Barley", "Cotton", "Ground Nuts", "Maize", "Millets", "Oil seeds",
		"Paddy", "Pulses", "Sugarcane", "Tobacco", "Wheat",
	}
)

// Numeric column names of the fertilizer model. The spelling of Temparature and
// the trailing space in "Humidity " are part of the trained artifact.
const (
	ColTemperature = "Temparature"
	ColHumidity    = "Humidity "
	ColMoisture    = "Moisture"
	ColNitrogen    = "Nitrogen"
	ColPotassium   = "Potassium"
	ColPhosphorous = "Phosphorous"
)

var fertilizerNumericColumns = []string{
	ColTemperature, ColHumidity, ColMoisture, ColNitrogen, ColPotassium, ColPhosphorous,
}

var (
	soilColumnIndex = indexColumns(SoilPrefix, SoilTypes)
	cropColumnIndex = indexColumns(CropPrefix, CropTypes)
	fertilizerCols  = buildFertilizerColumns()
)

func indexColumns(prefix string, values []string) map[string]int {
	m := make(map[string]int, len(values))
	for i, v := range values {
		m[prefix+v] = i
	}
	return m
}

func buildFertilizerColumns() []string {
	cols := make([]string, 0, len(fertilizerNumericColumns)+len(SoilTypes)+len(CropTypes))
	cols = append(cols, fertilizerNumericColumns...)
	for _, v := range SoilTypes {
		cols = append(cols, SoilPrefix+v)
	}
	for _, v := range CropTypes {
		cols = append(cols, CropPrefix+v)
	}
	return cols
}

// FertilizerFrame is the one-row, fixed-schema frame the fertilizer model was
// trained on. Zero value is the all-zero frame.
type FertilizerFrame struct {
	Temperature float64
	Humidity    float64
	Moisture    float64
	Nitrogen    float64
	Potassium   float64
	Phosphorous float64
	Soil        [5]float64
	Crop        [11]float64
}

// EncodeFertilizer builds the frame. A soil or crop value outside the
// vocabulary leaves its indicator block all zero.
func EncodeFertilizer(in FertilizerInput) FertilizerFrame {
	frame := FertilizerFrame{
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		Moisture:    in.Moisture,
		Nitrogen:    in.Nitrogen,
		Potassium:   in.Potassium,
		Phosphorous: in.Phosphorous,
	}
	if idx, ok := soilColumnIndex[SoilPrefix+in.SoilType]; ok {
		frame.Soil[idx] = 1
	}
	if idx, ok := cropColumnIndex[CropPrefix+in.CropType]; ok {
		frame.Crop[idx] = 1
	}
	return frame
}

func SoilKnown(v string) bool {
	_, ok := soilColumnIndex[SoilPrefix+v]
	return ok
}

func CropKnown(v string) bool {
	_, ok := cropColumnIndex[CropPrefix+v]
	return ok
}

// FertilizerColumns returns the 22 training column names in order.
func FertilizerColumns() []string {
	out := make([]string, len(fertilizerCols))
	copy(out, fertilizerCols)
	return out
}

func (f FertilizerFrame) Columns() []string {
	return FertilizerColumns()
}

func (f FertilizerFrame) Values() []float64 {
	out := make([]float64, 0, len(fertilizerCols))
	out = append(out, f.Temperature, f.Humidity, f.Moisture, f.Nitrogen, f.Potassium, f.Phosphorous)
	out = append(out, f.Soil[:]...)
	out = append(out, f.Crop[:]...)
	return out
}

// Get returns the value of a named column.
func (f FertilizerFrame) Get(column string) (float64, bool) {
	switch column {
	case ColTemperature:
		return f.Temperature, true
	case ColHumidity:
		return f.Humidity, true
	case ColMoisture:
		return f.Moisture, true
	case ColNitrogen:
		return f.Nitrogen, true
	case ColPotassium:
		return f.Potassium, true
	case ColPhosphorous:
		return f.Phosphorous, true
	}
	if idx, ok := soilColumnIndex[column]; ok {
		return f.Soil[idx], true
	}
	if idx, ok := cropColumnIndex[column]; ok {
		return f.Crop[idx], true
	}
	return 0, false
}
