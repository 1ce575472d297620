package builtin

import (
	"github.com/kbukum/compgraph/errors"
	"github.com/kbukum/compgraph/operation"
	"github.com/kbukum/compgraph/plan"
)

// Register installs every built-in mapper and reducer into reg.
func Register(reg *plan.Registry) {
	reg.RegisterMapper("identity", func(plan.Args) (operation.Mapper, error) {
		return Identity(), nil
	})
	reg.RegisterMapper("filter_punctuation", columnMapper(FilterPunctuation))
	reg.RegisterMapper("lower_case", columnMapper(LowerCase))
	reg.RegisterMapper("calendar_weekday", columnMapper(CalendarWeekday))
	reg.RegisterMapper("split", func(a plan.Args) (operation.Mapper, error) {
		column, err := a.String("column")
		if err != nil {
			return nil, err
		}
		sep, err := a.StringOr("separator", "")
		if err != nil {
			return nil, err
		}
		return SplitBy(column, sep)
	})
	reg.RegisterMapper("product", func(a plan.Args) (operation.Mapper, error) {
		columns, err := a.Strings("columns")
		if err != nil {
			return nil, err
		}
		result, err := a.StringOr("result", "product")
		if err != nil {
			return nil, err
		}
		return Product(columns, result), nil
	})
	reg.RegisterMapper("where", func(a plan.Args) (operation.Mapper, error) {
		column, err := a.String("column")
		if err != nil {
			return nil, err
		}
		op, err := a.String("op")
		if err != nil {
			return nil, err
		}
		value, err := a.Value("value")
		if err != nil {
			return nil, err
		}
		return Where(column, Comparison(op), value)
	})
	reg.RegisterMapper("project", func(a plan.Args) (operation.Mapper, error) {
		columns, err := a.Strings("columns")
		if err != nil {
			return nil, err
		}
		return Project(columns...), nil
	})
	reg.RegisterMapper("rename", func(a plan.Args) (operation.Mapper, error) {
		from, to, err := twoStrings(a, "from", "to")
		if err != nil {
			return nil, err
		}
		return Rename(from, to), nil
	})
	reg.RegisterMapper("division", func(a plan.Args) (operation.Mapper, error) {
		num, den, err := twoStrings(a, "numerator", "denominator")
		if err != nil {
			return nil, err
		}
		result, err := a.StringOr("result", "quotient")
		if err != nil {
			return nil, err
		}
		return Division(num, den, result), nil
	})
	reg.RegisterMapper("logarithm", resultMapper("logarithm", Logarithm))
	reg.RegisterMapper("hour", resultMapper("hour", Hour))
	reg.RegisterMapper("weekday", resultMapper("weekday", Weekday))
	reg.RegisterMapper("haversine", func(a plan.Args) (operation.Mapper, error) {
		from, to, err := twoStrings(a, "a", "b")
		if err != nil {
			return nil, err
		}
		result, err := a.StringOr("result", "haversine")
		if err != nil {
			return nil, err
		}
		return Haversine(from, to, result), nil
	})
	reg.RegisterMapper("time_difference", func(a plan.Args) (operation.Mapper, error) {
		start, end, err := twoStrings(a, "start", "end")
		if err != nil {
			return nil, err
		}
		result, err := a.StringOr("result", "duration")
		if err != nil {
			return nil, err
		}
		return TimeDifference(start, end, result), nil
	})
	reg.RegisterMapper("normalize", func(a plan.Args) (operation.Mapper, error) {
		column, err := a.String("column")
		if err != nil {
			return nil, err
		}
		coef, err := a.Float("coef")
		if err != nil {
			return nil, err
		}
		return Normalize(column, coef), nil
	})

	reg.RegisterReducer("first", func(plan.Args) (operation.Reducer, error) {
		return First(), nil
	})
	reg.RegisterReducer("top_n", func(a plan.Args) (operation.Reducer, error) {
		column, err := a.String("column")
		if err != nil {
			return nil, err
		}
		n, err := a.Int("n")
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, errors.InvalidConfig("top_n: n must be positive")
		}
		return TopN(column, n), nil
	})
	reg.RegisterReducer("term_frequency", func(a plan.Args) (operation.Reducer, error) {
		words, err := a.String("words")
		if err != nil {
			return nil, err
		}
		result, err := a.StringOr("result", "tf")
		if err != nil {
			return nil, err
		}
		return TermFrequency(words, result), nil
	})
	reg.RegisterReducer("count", func(a plan.Args) (operation.Reducer, error) {
		result, err := a.StringOr("result", "count")
		if err != nil {
			return nil, err
		}
		return Count(result), nil
	})
	reg.RegisterReducer("sum", func(a plan.Args) (operation.Reducer, error) {
		column, err := a.String("column")
		if err != nil {
			return nil, err
		}
		return Sum(column), nil
	})
}

// NewRegistry returns a registry holding every built-in operation.
func NewRegistry() *plan.Registry {
	reg := plan.NewRegistry()
	Register(reg)
	return reg
}

func columnMapper(fn func(string) operation.Mapper) plan.MapperFactory {
	return func(a plan.Args) (operation.Mapper, error) {
		column, err := a.String("column")
		if err != nil {
			return nil, err
		}
		return fn(column), nil
	}
}

func resultMapper(def string, fn func(column, result string) operation.Mapper) plan.MapperFactory {
	return func(a plan.Args) (operation.Mapper, error) {
		column, err := a.String("column")
		if err != nil {
			return nil, err
		}
		result, err := a.StringOr("result", def)
		if err != nil {
			return nil, err
		}
		return fn(column, result), nil
	}
}

func twoStrings(a plan.Args, first, second string) (string, string, error) {
	x, err := a.String(first)
	if err != nil {
		return "", "", err
	}
	y, err := a.String(second)
	if err != nil {
		return "", "", err
	}
	return x, y, nil
}
