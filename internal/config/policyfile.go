package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/okian/gradecurve/internal/domain/grade"
	"github.com/okian/gradecurve/internal/domain/policy"
	"gopkg.in/yaml.v3"
)

type policyDoc struct {
	Kind        string    `yaml:"kind"`
	Thresholds  yaml.Node `yaml:"thresholds"`
	Quotas      yaml.Node `yaml:"quotas"`
	DFloorSigma float64   `yaml:"d_floor_sigma"`
}

// LoadPolicyFile reads a standalone policy file and validates it.
func LoadPolicyFile(path string) (policy.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return policy.Spec{}, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	spec, err := ParsePolicy(data)
	if err != nil {
		return policy.Spec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// ParsePolicy decodes a policy document. Thresholds and quotas may be written
// either as a mapping keyed by grade, evaluated in document order:
//
//	kind: absolute
//	thresholds:
//	  A: 90
//	  B: 80
//
// or as a list of {grade, min} / {grade, percent} entries. The result is
// validated.
func ParsePolicy(data []byte) (policy.Spec, error) {
	var doc policyDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return policy.Spec{}, fmt.Errorf("%w: policy document: %w", ErrInvalidConfig, err)
	}

	spec := policy.Spec{Kind: policy.Kind(doc.Kind), DFloorSigma: doc.DFloorSigma}
	err := decodePairs(&doc.Thresholds, "thresholds", "min", func(g grade.Grade, v float64) {
		spec.Thresholds = append(spec.Thresholds, policy.Threshold{Grade: g, Min: v})
	}, &spec.Thresholds)
	if err != nil {
		return policy.Spec{}, err
	}
	err = decodePairs(&doc.Quotas, "quotas", "percent", func(g grade.Grade, v float64) {
		spec.Quotas = append(spec.Quotas, policy.Quota{Grade: g, Percent: v})
	}, &spec.Quotas)
	if err != nil {
		return policy.Spec{}, err
	}

	spec = spec.WithDefaults()
	if _, err := spec.Build(); err != nil {
		return policy.Spec{}, err
	}
	return spec, nil
}

// decodePairs walks a mapping node in order, calling add per entry, or
// decodes a sequence node straight into list.
func decodePairs(n *yaml.Node, field, valueKey string, add func(grade.Grade, float64), list any) error {
	switch n.Kind {
	case 0:
		return nil
	case yaml.SequenceNode:
		if err := n.Decode(list); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, field, err)
		}
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			g, err := grade.Parse(key.Value)
			if err != nil {
				return fmt.Errorf("%w: %s line %d: %w", ErrInvalidConfig, field, key.Line, err)
			}
			var v float64
			if err := val.Decode(&v); err != nil {
				return fmt.Errorf("%w: %s.%s line %d: %s must be a number", ErrInvalidConfig, field, key.Value, val.Line, valueKey)
			}
			add(g, v)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s must be a mapping or a list (line %d)", ErrInvalidConfig, field, n.Line)
	}
}
