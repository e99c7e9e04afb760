package modify

// MapElement is one element placed on a network map.
type MapElement struct {
	ID       uint32 `json:"id" yaml:"id"`
	Type     int16  `json:"type" yaml:"type"`
	ObjectID uint64 `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	X        int32  `json:"x" yaml:"x"`
	Y        int32  `json:"y" yaml:"y"`
}

// MapLink connects two map elements.
type MapLink struct {
	Element1 uint32 `json:"element1" yaml:"element1"`
	Element2 uint32 `json:"element2" yaml:"element2"`
	Type     int16  `json:"type" yaml:"type"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Each element or link owns a block of mapTagStride consecutive tags.
const mapTagStride = 8

// StatusCalculation holds the status calculation settings, which the
// server always updates together.
type StatusCalculation struct {
	CalculationAlgorithm int16    `json:"calculation_algorithm" yaml:"calculation_algorithm"`
	PropagationAlgorithm int16    `json:"propagation_algorithm" yaml:"propagation_algorithm"`
	FixedStatus          int16    `json:"fixed_status" yaml:"fixed_status"`
	Shift                int16    `json:"shift" yaml:"shift"`
	Translation          [4]int16 `json:"translation" yaml:"translation"`
	SingleThreshold      int16    `json:"single_threshold" yaml:"single_threshold"`
	Thresholds           [4]int16 `json:"thresholds" yaml:"thresholds"`
}

// Agent authentication methods.
const (
	AgentAuthNone      int16 = 0
	AgentAuthPlaintext int16 = 1
	AgentAuthMD5       int16 = 2
	AgentAuthSHA1      int16 = 3
)
