package hae

// MetricKind identifies the body measurement field a metric fills.
type MetricKind int

const (
	KindUnsupported MetricKind = iota
	KindBodyMass               // weight_body_mass, mass unit in Units
	KindBodyFat                // body_fat_percentage, percent
)

// Kind returns the measurement field for an HAE metric name.
func Kind(name string) MetricKind {
	switch name {
	case "weight_body_mass", "body_mass":
		return KindBodyMass
	case "body_fat_percentage":
		return KindBodyFat
	default:
		return KindUnsupported
	}
}
