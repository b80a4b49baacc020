package models

// ResultSet holds the four output movies of a transform, each with the shape
// of the input movie.
type ResultSet struct {
	Phase     *Movie
	Period    *Movie
	Power     *Movie
	Amplitude *Movie
}

// NewResultSet allocates four zero movies of the given shape.
func NewResultSet(frames, height, width int) *ResultSet {
	return &ResultSet{
		Phase:     NewMovie(frames, height, width),
		Period:    NewMovie(frames, height, width),
		Power:     NewMovie(frames, height, width),
		Amplitude: NewMovie(frames, height, width),
	}
}

// ResultNames lists the output movies in their canonical order.
var ResultNames = []string{"phase", "period", "power", "amplitude"}

// Named returns the movies keyed by their ResultNames entry.
func (r *ResultSet) Named() map[string]*Movie {
	return map[string]*Movie{
		"phase":     r.Phase,
		"period":    r.Period,
		"power":     r.Power,
		"amplitude": r.Amplitude,
	}
}

// Each calls fn for every output movie in ResultNames order.
func (r *ResultSet) Each(fn func(name string, m *Movie) error) error {
	named := r.Named()
	for _, name := range ResultNames {
		if err := fn(name, named[name]); err != nil {
			return err
		}
	}
	return nil
}

// PutRows writes the rows of a block result back at row offset y0.
func (r *ResultSet) PutRows(y0 int, sub *ResultSet) {
	r.Phase.PutRows(y0, sub.Phase)
	r.Period.PutRows(y0, sub.Period)
	r.Power.PutRows(y0, sub.Power)
	r.Amplitude.PutRows(y0, sub.Amplitude)
}
