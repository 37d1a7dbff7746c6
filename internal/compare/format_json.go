package compare

import (
	"encoding/json"
)

// JSONFormatter formats comparison results as JSON
type JSONFormatter struct {
	Pretty bool // If true, format with indentation
}

// Format generates JSON output for comparison results
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	return jf.marshal(compSet)
}

// FormatDeltas generates JSON output for a bare assumption diff
func (jf *JSONFormatter) FormatDeltas(deltas []AssumptionDelta) (string, error) {
	if deltas == nil {
		deltas = []AssumptionDelta{}
	}
	return jf.marshal(deltas)
}

func (jf *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}
