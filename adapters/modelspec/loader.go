// Package modelspec loads graph-model definitions from HCL files.
//
// A definition file declares one model block:
//
//	model "citygrid" {
//	  nodes = 4
//
//	  edge "0-1" { weight = 2.5 }
//	  edge "1-2" { weight = 3 }
//	}
//
// The loader only checks HCL shape; index-range and weight validation
// belong to the graph builder.
package modelspec

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"tokengraph/internal/errors"
)

// Definition is a parsed model declaration.
type Definition struct {
	// Name is the model block label
	Name string

	// NodeCount is the declared number of nodes
	NodeCount int

	// Edges maps edge key "i-j" to weight
	Edges map[string]float64
}

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "model", LabelNames: []string{"name"}},
	},
}

var modelSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "nodes", Required: true},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "edge", LabelNames: []string{"key"}},
	},
}

var edgeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "weight", Required: true},
	},
}

// LoadFile parses a model definition from a file
func LoadFile(path string) (*Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInvalidInput, "failed to read model definition", err)
	}
	return Parse(src, path)
}

// Parse parses a model definition from HCL source
func Parse(src []byte, filename string) (*Definition, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.InvalidInput("invalid model definition: " + diags.Error())
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, errors.InvalidInput("invalid model definition: " + diags.Error())
	}
	if len(content.Blocks) != 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("want exactly one model block, got %d", len(content.Blocks)))
	}

	block := content.Blocks[0]
	def := &Definition{
		Name:  block.Labels[0],
		Edges: make(map[string]float64),
	}

	body, diags := block.Body.Content(modelSchema)
	if diags.HasErrors() {
		return nil, errors.InvalidInput("invalid model block: " + diags.Error())
	}

	nodes, err := evalNumber(body.Attributes["nodes"])
	if err != nil {
		return nil, err
	}
	def.NodeCount = int(nodes)

	for _, edge := range body.Blocks {
		key := edge.Labels[0]
		edgeBody, diags := edge.Body.Content(edgeSchema)
		if diags.HasErrors() {
			return nil, errors.InvalidInput("invalid edge block " + key + ": " + diags.Error())
		}
		weight, err := evalNumber(edgeBody.Attributes["weight"])
		if err != nil {
			return nil, err
		}
		if _, dup := def.Edges[key]; dup {
			return nil, errors.InvalidInput("duplicate edge key: " + key)
		}
		def.Edges[key] = weight
	}

	return def, nil
}

func evalNumber(attr *hcl.Attribute) (float64, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return 0, errors.InvalidInput("invalid " + attr.Name + ": " + diags.Error())
	}
	if val.Type() != cty.Number {
		return 0, errors.InvalidInput(attr.Name + " must be a number")
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}
