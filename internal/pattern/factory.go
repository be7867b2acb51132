package pattern

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// New builds a detector of the given kind. Options override the kind's
// defaults; unknown option keys are rejected. Custom detectors cannot be
// built here and must be supplied as a DetectorFunc.
func New(kind Kind, options map[string]any) (Detector, error) {
	switch kind {
	case KindCircle:
		opts := DefaultCircleOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Circle(opts), nil

	case KindSwipe:
		opts := DefaultSwipeOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Swipe(opts), nil

	case KindZigzag:
		opts := DefaultZigzagOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Zigzag(opts), nil

	case KindLine:
		opts := DefaultLineOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Line(opts), nil

	case KindPinch:
		opts := DefaultPinchOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Pinch(opts), nil

	case KindSpiral:
		opts := DefaultSpiralOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Spiral(opts), nil

	case KindLasso:
		opts := DefaultLassoOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Lasso(opts), nil

	case KindCross:
		opts := DefaultCrossOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return Cross(opts), nil

	case KindPath:
		opts := DefaultPathOptions()
		if err := decodeOptions(options, &opts); err != nil {
			return nil, err
		}
		if len(opts.Template) == 0 {
			return nil, fmt.Errorf("path pattern requires a template")
		}
		return Path(opts), nil

	case KindSequence:
		return newSequenceFromOptions(options)

	case KindCustom:
		return nil, fmt.Errorf("%w: custom detectors must be supplied in code", ErrUnknownKind)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// sequenceOptions is the declarative form of a sequence.
// Steps are either kind names or {type, options} objects.
type sequenceOptions struct {
	MaxTimeBetween int64 `mapstructure:"maxTimeBetween"`
	Steps          []any `mapstructure:"steps"`
}

func newSequenceFromOptions(options map[string]any) (Detector, error) {
	var opts sequenceOptions
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Steps) == 0 {
		return nil, fmt.Errorf("sequence pattern requires at least one step")
	}

	steps := make([]Step, 0, len(opts.Steps))
	for i, raw := range opts.Steps {
		var (
			kind     Kind
			stepOpts map[string]any
		)

		switch v := raw.(type) {
		case string:
			kind = Kind(v)
		case map[string]any:
			name, _ := v["type"].(string)
			kind = Kind(name)
			if o, ok := v["options"].(map[string]any); ok {
				stepOpts = o
			}
		default:
			return nil, fmt.Errorf("sequence step %d: unsupported step %T", i, raw)
		}

		if kind == KindSequence {
			return nil, fmt.Errorf("sequence step %d: sequences cannot nest", i)
		}

		d, err := New(kind, stepOpts)
		if err != nil {
			return nil, fmt.Errorf("sequence step %d: %w", i, err)
		}
		steps = append(steps, Step{Name: string(kind), Detector: d})
	}

	return NewSequence(opts.MaxTimeBetween, steps...), nil
}

// decodeOptions applies a loosely typed option map onto a typed options struct.
func decodeOptions(options map[string]any, out any) error {
	if len(options) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}

	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

// OptionsMap flattens a typed options struct into a map for introspection.
func OptionsMap(opts any) map[string]any {
	out := make(map[string]any)
	if err := mapstructure.Decode(opts, &out); err != nil {
		return nil
	}
	return out
}
