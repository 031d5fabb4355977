package media

import (
	"fmt"
	"strings"
)

// Property is manifest item property,
// https://www.w3.org/TR/epub-33/#app-item-properties-vocab.
type Property int

const (
	PropertyCoverImage Property = iota + 1
	PropertyMathML
	PropertyNav
	PropertyRemoteResources
	PropertyScripted
	PropertySVG
	PropertySwitch
)

var propertyNames = map[Property]string{
	PropertyCoverImage:      "cover-image",
	PropertyMathML:          "mathml",
	PropertyNav:             "nav",
	PropertyRemoteResources: "remote-resources",
	PropertyScripted:        "scripted",
	PropertySVG:             "svg",
	PropertySwitch:          "switch",
}

func (p Property) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Property(%d)", int(p))
}

// ParseProperty converts manifest property name to Property.
func ParseProperty(name string) (Property, error) {
	for p, n := range propertyNames {
		if n == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%q is not a valid manifest item property", name)
}

func (p Property) MarshalText() ([]byte, error) {
	if _, ok := propertyNames[p]; !ok {
		return nil, fmt.Errorf("invalid property %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Property) UnmarshalText(text []byte) error {
	v, err := ParseProperty(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Properties is an ordered set of properties.
type Properties []Property

// Add appends properties which are not in the set yet.
func (ps *Properties) Add(props ...Property) {
	for _, p := range props {
		if !ps.Has(p) {
			*ps = append(*ps, p)
		}
	}
}

func (ps Properties) Has(p Property) bool {
	for _, v := range ps {
		if v == p {
			return true
		}
	}
	return false
}

// String returns space separated list suitable for "properties" attribute.
func (ps Properties) String() string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.String())
	}
	return strings.Join(names, " ")
}
