package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaCUE string

// CheckSchema validates a YAML assumption document against #Assumptions.
// The definition is closed, so unknown keys are rejected along with
// out-of-range values.
func CheckSchema(filename string, data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return &Error{Code: ErrCodeSchema, Message: "compiling embedded schema", Err: err}
	}
	def := schema.LookupPath(cue.ParsePath("#Assumptions"))

	file, err := yaml.Extract(filename, data)
	if err != nil {
		return &Error{Code: ErrCodeParse, Message: fmt.Sprintf("parsing %s", filename), Err: err}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &Error{Code: ErrCodeParse, Message: fmt.Sprintf("building %s", filename), Err: err}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &Error{Code: ErrCodeSchema, Message: fmt.Sprintf("%s does not match schema", filename), Err: err}
	}
	return nil
}
