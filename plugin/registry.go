package plugin

import "fmt"

// Transformers is a global map of SampleTransformer plugins.
var Transformers = map[string]func() SampleTransformer{
	"calc_flow": func() SampleTransformer {
		return &CalcFlowPlugin{}
	},
}

func TransformerLookup(name string) (SampleTransformer, error) {
	factory, ok := Transformers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformer: %s", name)
	}
	return factory(), nil
}
