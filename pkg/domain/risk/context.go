package risk

import (
	"github.com/mitchellh/mapstructure"
)

// Context carries caller-supplied hints for one analysis.
type Context struct {
	IsFirstVisit        bool                   `mapstructure:"isFirstVisit" json:"isFirstVisit"`
	HasValidSession     bool                   `mapstructure:"hasValidSession" json:"hasValidSession"`
	SuspiciousUserAgent bool                   `mapstructure:"suspiciousUserAgent" json:"suspiciousUserAgent"`
	UserAgent           string                 `mapstructure:"userAgent" json:"userAgent,omitempty"`
	Hints               map[string]interface{} `mapstructure:",remain" json:"hints,omitempty"`

	// ForceRefresh skips the decision cache. Whitelist and block checks
	// still apply.
	ForceRefresh bool `mapstructure:"-" json:"-"`
}

func ContextFromMap(raw map[string]interface{}) (Context, error) {
	var c Context
	if len(raw) == 0 {
		return c, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &c,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return c, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Context{}, err
	}
	return c, nil
}
