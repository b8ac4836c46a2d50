package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeSection decodes a mechanism-private configuration section into a
// typed config struct. Duration fields accept "5m"-style strings, matching
// how the same values decode from the YAML file.
func DecodeSection(section map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("config: decoder: %w", err)
	}
	if err := dec.Decode(section); err != nil {
		return fmt.Errorf("config: decode section: %w", err)
	}
	return nil
}
