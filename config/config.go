// Package config implements the YAML-driven startup configuration for a
// fieldctl host: which subsystems exist, which named routine (built from a
// path file) backs each one, and which command is each subsystem's default.
//
// Grounded on the teacher's yamlgraph.GraphConfig (yamlgraph/gconfig.go): a
// single top-level struct decoded in one yaml.Unmarshal call, validated
// right after, with named sub-documents instead of mgmt's per-kind resource
// slices.
package config

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/fieldctl/core/command"
	"github.com/fieldctl/core/follower"
	"github.com/fieldctl/core/registry"
	"github.com/fieldctl/core/routine"
	"github.com/fieldctl/core/scheduler"
)

// SubsystemConfig declares one subsystem and, optionally, the name of the
// command to run as its default whenever it's idle.
type SubsystemConfig struct {
	Name    string `yaml:"name"`
	Default string `yaml:"default"`
}

// RoutineConfig declares one named, path-file-backed routine.
type RoutineConfig struct {
	Name     string  `yaml:"name"`
	PathFile string  `yaml:"pathFile"`
	Subsys   string  `yaml:"subsystem"`
	MaxPower float64 `yaml:"maxPower"`
}

// Document is the full startup configuration.
type Document struct {
	Subsystems []SubsystemConfig `yaml:"subsystems"`
	Routines   []RoutineConfig   `yaml:"routines"`
}

// Parse decodes and validates a config document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) validate() error {
	seen := map[string]struct{}{}
	for _, s := range d.Subsystems {
		if s.Name == "" {
			return fmt.Errorf("config: a subsystem is missing its name")
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("config: duplicate subsystem name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	for _, r := range d.Routines {
		if r.Name == "" {
			return fmt.Errorf("config: a routine is missing its name")
		}
		if r.PathFile == "" {
			return fmt.Errorf("config: routine %q is missing its pathFile", r.Name)
		}
		if r.Subsys == "" {
			return fmt.Errorf("config: routine %q is missing its subsystem", r.Name)
		}
		if _, ok := seen[r.Subsys]; !ok {
			return fmt.Errorf("config: routine %q references unknown subsystem %q", r.Name, r.Subsys)
		}
	}
	return nil
}

// ReadPathFile loads and parses the path file at path. Factored out as a
// seam so Apply can be exercised in tests without touching disk.
var ReadPathFile = func(path string) (*routine.Document, error) {
	return readAndParsePathFile(path)
}

// Followers supplies the Follower bound to each subsystem name a
// RoutineConfig references; Apply looks it up once per routine.
type Followers map[string]follower.Follower

// Apply registers every subsystem in doc with sched, builds every
// configured routine via routine.Build, registers each under its own name
// in reg, and binds each subsystem's configured default command (resolved
// through reg) via sched.SetDefaultCommand. It returns the constructed
// command.Subsystem handles, keyed by name.
func Apply(doc *Document, sched *scheduler.Scheduler, reg *registry.Registry, followers Followers) (map[string]*command.Subsystem, error) {
	subs := make(map[string]*command.Subsystem, len(doc.Subsystems))
	for _, s := range doc.Subsystems {
		sub := command.NewSubsystem(s.Name)
		subs[s.Name] = sub
		sched.RegisterSubsystem(sub)
	}

	for _, r := range doc.Routines {
		sub, ok := subs[r.Subsys]
		if !ok {
			return nil, fmt.Errorf("config: routine %q references unknown subsystem %q", r.Name, r.Subsys)
		}
		f, ok := followers[r.Subsys]
		if !ok {
			return nil, fmt.Errorf("config: no Follower supplied for subsystem %q", r.Subsys)
		}
		pathDoc, err := ReadPathFile(r.PathFile)
		if err != nil {
			return nil, fmt.Errorf("config: loading routine %q: %w", r.Name, err)
		}
		cmd, err := routine.Build(pathDoc, sub, f, sched, reg, r.MaxPower)
		if err != nil {
			return nil, fmt.Errorf("config: building routine %q: %w", r.Name, err)
		}
		reg.Register(r.Name, cmd, fmt.Sprintf("routine loaded from %s", r.PathFile))
	}

	for _, s := range doc.Subsystems {
		if s.Default == "" {
			continue
		}
		sub := subs[s.Name]
		d := reg.Get(s.Default)
		if err := sched.SetDefaultCommand(sub, d); err != nil {
			return nil, fmt.Errorf("config: subsystem %q default %q: %w", s.Name, s.Default, err)
		}
	}

	return subs, nil
}
