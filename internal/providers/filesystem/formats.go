package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// FormatsOps handles structured file formats
type FormatsOps struct {
	*FilesystemOps
}

// formatCodec pairs a format name with its encoder and decoder.
type formatCodec struct {
	name      string
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte, v interface{}) error
}

var (
	jsonCodec = formatCodec{
		name: "json",
		marshal: func(v interface{}) ([]byte, error) {
			return sonic.ConfigStd.MarshalIndent(v, "", "  ")
		},
		unmarshal: sonic.Unmarshal,
	}
	yamlCodec = formatCodec{name: "yaml", marshal: yaml.Marshal, unmarshal: yaml.Unmarshal}
	tomlCodec = formatCodec{
		name: "toml",
		marshal: func(v interface{}) ([]byte, error) {
			if _, ok := v.(map[string]interface{}); !ok {
				return nil, invalidf("toml documents must be objects")
			}
			return toml.Marshal(v)
		},
		unmarshal: toml.Unmarshal,
	}
)

// GetTools returns structured format tool definitions
func (f *FormatsOps) GetTools() []types.Tool {
	var tools []types.Tool
	for _, c := range []formatCodec{jsonCodec, yamlCodec, tomlCodec} {
		tools = append(tools,
			types.Tool{
				ID:          "filesystem." + c.name + ".read",
				Name:        "Read " + upper(c.name),
				Description: "Read and parse a " + upper(c.name) + " file",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
					{Name: "base_dir", Type: "string", Description: "Directory the path is relative to", Required: false},
				},
				Returns: "object",
			},
			types.Tool{
				ID:          "filesystem." + c.name + ".write",
				Name:        "Write " + upper(c.name),
				Description: "Serialize data as " + upper(c.name) + " and write it atomically",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "File path", Required: true},
					{Name: "data", Type: "object", Description: "Data to write", Required: true},
					{Name: "base_dir", Type: "string", Description: "Directory the path is relative to", Required: false},
				},
				Returns: "object",
			},
		)
	}
	return tools
}

func upper(name string) string {
	switch name {
	case "json":
		return "JSON"
	case "yaml":
		return "YAML"
	case "toml":
		return "TOML"
	}
	return name
}

// JSONRead parses a JSON file
func (f *FormatsOps) JSONRead(ctx context.Context, params Params) (*types.Result, error) {
	return f.read(params, jsonCodec)
}

// JSONWrite writes a JSON file
func (f *FormatsOps) JSONWrite(ctx context.Context, params Params) (*types.Result, error) {
	return f.write(params, jsonCodec)
}

// YAMLRead parses a YAML file
func (f *FormatsOps) YAMLRead(ctx context.Context, params Params) (*types.Result, error) {
	return f.read(params, yamlCodec)
}

// YAMLWrite writes a YAML file
func (f *FormatsOps) YAMLWrite(ctx context.Context, params Params) (*types.Result, error) {
	return f.write(params, yamlCodec)
}

// TOMLRead parses a TOML file
func (f *FormatsOps) TOMLRead(ctx context.Context, params Params) (*types.Result, error) {
	return f.read(params, tomlCodec)
}

// TOMLWrite writes a TOML file
func (f *FormatsOps) TOMLWrite(ctx context.Context, params Params) (*types.Result, error) {
	return f.write(params, tomlCodec)
}

func (f *FormatsOps) read(params Params, c formatCodec) (*types.Result, error) {
	action := c.name + "_read"
	t, err := f.param(params, "path", "base_dir")
	if err != nil {
		return f.Failure(action, types.SubjectFormat, err, "")
	}

	data, err := os.ReadFile(t.Path)
	if err != nil {
		return f.Failure(action, types.SubjectFormat, fmt.Errorf("read failed: %w", err), t.Path)
	}

	var parsed interface{}
	if err := c.unmarshal(data, &parsed); err != nil {
		return f.Failure(action, types.SubjectFormat, invalidf("%s parse error: %v", upper(c.name), err), t.Path)
	}

	return f.Success(action, &types.FormatOp{
		Path:   f.display(t.Path),
		Format: c.name,
		Data:   parsed,
		Size:   int64(len(data)),
	}, t.Path)
}

func (f *FormatsOps) write(params Params, c formatCodec) (*types.Result, error) {
	action := c.name + "_write"
	t, err := f.param(params, "path", "base_dir")
	if err != nil {
		return f.Failure(action, types.SubjectFormat, err, "")
	}
	data, ok := params["data"]
	if !ok {
		return f.Failure(action, types.SubjectFormat, invalidf("data parameter required"), t.Path)
	}
	if err := refuseSymlink(t); err != nil {
		return f.Failure(action, types.SubjectFormat, err, t.Path)
	}

	encoded, err := c.marshal(data)
	if err != nil {
		return f.Failure(action, types.SubjectFormat, fmt.Errorf("%s encoding error: %w", upper(c.name), err), t.Path)
	}
	if err := f.Writer.Write(t.Path, encoded); err != nil {
		return f.Failure(action, types.SubjectFormat, fmt.Errorf("write failed: %w", err), t.Path)
	}

	return f.Success(action, &types.FormatOp{
		Path:   f.display(t.Path),
		Format: c.name,
		Size:   int64(len(encoded)),
	}, t.Path)
}
