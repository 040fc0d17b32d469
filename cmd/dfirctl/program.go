package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/dfir/dfirgraph"
	"github.com/katalvlaran/dfir/flatbuild"
)

// programDTO is the YAML-facing program format this CLI's surface-syntax
// front-end accepts. The flatbuild package itself owns no lexer or parser
// (spec §6, "Surface-syntax front-end (external)") — that collaborator is
// this file.
type programDTO struct {
	Statements []statementDTO `yaml:"statements"`
}

type statementDTO struct {
	Use  string         `yaml:"use,omitempty"`
	Name string         `yaml:"name,omitempty"`
	Pipe *pipelineDTO   `yaml:"pipe,omitempty"`
	Loop []statementDTO `yaml:"loop,omitempty"`
}

type pipelineDTO struct {
	Op         string        `yaml:"op,omitempty"`
	Args       []string      `yaml:"args,omitempty"`
	Persist    []string      `yaml:"persist,omitempty"`
	TypeArgs   []string      `yaml:"type_args,omitempty"`
	Singletons []string      `yaml:"singletons,omitempty"`
	Ref        string        `yaml:"ref,omitempty"`
	Chain      []pipelineDTO `yaml:"chain,omitempty"`
	InPort     string        `yaml:"in_port,omitempty"`
	OutPort    string        `yaml:"out_port,omitempty"`
}

// loadProgram reads and converts a YAML program file into the statement
// list flatbuild.Build consumes.
func loadProgram(path string) ([]flatbuild.Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dfirctl: read program %s: %w", path, err)
	}

	var dto programDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("dfirctl: parse program %s: %w", path, err)
	}

	return statementsFromDTO(dto.Statements)
}

func statementsFromDTO(dtos []statementDTO) ([]flatbuild.Statement, error) {
	stmts := make([]flatbuild.Statement, 0, len(dtos))
	for _, d := range dtos {
		s, err := statementFromDTO(d)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}

	return stmts, nil
}

func statementFromDTO(d statementDTO) (flatbuild.Statement, error) {
	switch {
	case d.Use != "":
		return flatbuild.Statement{Kind: flatbuild.StmtUse, Use: d.Use}, nil
	case len(d.Loop) > 0:
		body, err := statementsFromDTO(d.Loop)
		if err != nil {
			return flatbuild.Statement{}, err
		}

		return flatbuild.Statement{Kind: flatbuild.StmtLoop, Body: body}, nil
	case d.Pipe != nil:
		pipe, err := pipelineFromDTO(*d.Pipe)
		if err != nil {
			return flatbuild.Statement{}, err
		}
		if d.Name != "" {
			return flatbuild.Statement{Kind: flatbuild.StmtAssign, Name: d.Name, Pipe: pipe}, nil
		}

		return flatbuild.Statement{Kind: flatbuild.StmtBare, Pipe: pipe}, nil
	default:
		return flatbuild.Statement{}, fmt.Errorf("dfirctl: statement has neither use, loop, nor pipe")
	}
}

func pipelineFromDTO(d pipelineDTO) (flatbuild.Pipeline, error) {
	var inner flatbuild.Pipeline
	switch {
	case len(d.Chain) > 0:
		steps := make([]flatbuild.Pipeline, 0, len(d.Chain))
		for _, s := range d.Chain {
			step, err := pipelineFromDTO(s)
			if err != nil {
				return flatbuild.Pipeline{}, err
			}
			steps = append(steps, step)
		}
		inner = steps[0]
		for _, next := range steps[1:] {
			inner = flatbuild.Link(inner, next)
		}
	case d.Ref != "":
		inner = flatbuild.Ref(d.Ref)
	case d.Op != "":
		persist, err := persistenceFromStrings(d.Persist)
		if err != nil {
			return flatbuild.Pipeline{}, err
		}
		op := flatbuild.Op(d.Op, d.Args...)
		op.Persist = persist
		op.TypeArgs = d.TypeArgs
		op.Singletons = d.Singletons
		inner = op
	default:
		return flatbuild.Pipeline{}, fmt.Errorf("dfirctl: pipeline has neither op, ref, nor chain")
	}

	if d.InPort == "" && d.OutPort == "" {
		return inner, nil
	}

	return flatbuild.Pipeline{
		Kind:    flatbuild.PipelineParen,
		Inner:   &inner,
		InPort:  portFromString(d.InPort),
		OutPort: portFromString(d.OutPort),
	}, nil
}

func portFromString(name string) dfirgraph.Port {
	if name == "" {
		return dfirgraph.ElidedPort
	}

	return dfirgraph.NamedPort(name)
}

func persistenceFromStrings(names []string) ([]dfirgraph.Persistence, error) {
	if names == nil {
		return nil, nil
	}
	out := make([]dfirgraph.Persistence, 0, len(names))
	for _, n := range names {
		switch n {
		case "tick":
			out = append(out, dfirgraph.Tick)
		case "static":
			out = append(out, dfirgraph.Static)
		default:
			return nil, fmt.Errorf("dfirctl: unknown persistence %q (want tick or static)", n)
		}
	}

	return out, nil
}
