package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ExportSchema reflects cfg's type into a JSON Schema document, for
// editor autocompletion and out-of-band validation of YAML config
// files. Pass a *Config or *ClientConfig.
func ExportSchema(cfg any) ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(cfg)
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "weft configuration"

	return json.MarshalIndent(schema, "", "  ")
}
