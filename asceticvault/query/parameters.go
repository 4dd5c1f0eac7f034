package query

// Parameters is a positional cursor over bound parameter values.
// It is consumed left to right while a query is built.
type Parameters struct {
	values []any
	index  int
}

func NewParameters(values ...any) *Parameters {
	return &Parameters{values: values}
}

// Next returns the next value or a ParameterExhaustionError.
func (p *Parameters) Next() (any, error) {
	_, value, err := p.next()
	return value, err
}

func (p *Parameters) HasNext() bool {
	return p.index < len(p.values)
}

func (p *Parameters) Remaining() int {
	return len(p.values) - p.index
}

func (p *Parameters) next() (int, any, error) {
	if !p.HasNext() {
		return p.index, nil, &ParameterExhaustionError{Index: p.index}
	}
	index := p.index
	p.index++
	return index, p.values[index], nil
}
