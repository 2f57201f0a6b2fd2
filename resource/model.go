package resource

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Placeholder definitions for a few known constants.
const (
	APITypeComponentName = "component"
	SubtypeSensor        = "sensor"
)

var (
	modelRegexValidator = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	apiRegexValidator   = regexp.MustCompile(`^(?:(\w+):)?(\w+)$`)
)

// A Model is the registered type name of a component implementation, e.g. "esp32-fat".
type Model string

// Validate ensures the model is non-empty and uses only allowed characters.
func (m Model) Validate() error {
	if m == "" {
		return errors.New("model name field for resource missing")
	}
	if !modelRegexValidator.MatchString(string(m)) {
		return errors.Errorf("model %q must match %s", string(m), modelRegexValidator)
	}
	return nil
}

func (m Model) String() string {
	return string(m)
}

// An API identifies the kind of thing a component is, e.g. "component:sensor".
type API struct {
	Type    string
	Subtype string
}

// NewAPI creates a new API based on parameters passed in.
func NewAPI(typ, subtype string) API {
	return API{Type: typ, Subtype: subtype}
}

// APIComponentSensor is the API every sensor model registers under.
var APIComponentSensor = NewAPI(APITypeComponentName, SubtypeSensor)

// NewAPIFromString parses "type:subtype". A bare subtype is taken to be a component.
func NewAPIFromString(s string) (API, error) {
	matches := apiRegexValidator.FindStringSubmatch(s)
	if matches == nil {
		return API{}, errors.Errorf("string %q is not a valid api name", s)
	}
	typ := matches[1]
	if typ == "" {
		typ = APITypeComponentName
	}
	return NewAPI(typ, matches[2]), nil
}

// IsZero reports whether the API was never set.
func (a API) IsZero() bool {
	return a.Type == "" && a.Subtype == ""
}

// IsComponent returns if this api is for a component.
func (a API) IsComponent() bool {
	return a.Type == APITypeComponentName
}

// Validate ensures that important fields exist and are valid.
func (a API) Validate() error {
	if a.Type == "" {
		return errors.New("type field for api missing")
	}
	if a.Subtype == "" {
		return errors.New("subtype field for api missing")
	}
	if strings.ContainsAny(a.Type+a.Subtype, ":/") {
		return errors.Errorf("api %q contains reserved character", a.String())
	}
	return nil
}

func (a API) String() string {
	return fmt.Sprintf("%s:%s", a.Type, a.Subtype)
}

// MarshalJSON marshals the api as its string form.
func (a API) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either "type:subtype" or a bare subtype.
func (a *API) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = API{}
		return nil
	}
	parsed, err := NewAPIFromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Name is the fully qualified name of a component instance.
type Name struct {
	API  API
	Name string
}

// NewName creates a new Name based on parameters passed in.
func NewName(api API, name string) Name {
	return Name{API: api, Name: name}
}

func (n Name) String() string {
	return fmt.Sprintf("%s/%s", n.API, n.Name)
}
