package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsLoader handles loading and parsing YAML settings files.
// Missing files are not an error: the compiled-in defaults are used so the
// agent works out of the box without a settings directory.
type SettingsLoader struct {
	settingsDir string
}

// ServiceKeywords binds a service name to its routing keywords. Order of
// entries is significant: the first matching service wins.
type ServiceKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// OperationKeywords binds an operation type to its routing keywords.
type OperationKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// RoutingKeywordsConfig drives the router's rule-based fallback path
type RoutingKeywordsConfig struct {
	Services      []ServiceKeywords   `yaml:"services"`
	Operations    []OperationKeywords `yaml:"operations"`
	InstanceNouns []string            `yaml:"instance_nouns"`
}

// InstanceTypeRule maps a qualitative description to a concrete instance
// type. Every group in AllOf must have at least one substring match.
type InstanceTypeRule struct {
	InstanceType string     `yaml:"instance_type"`
	AllOf        [][]string `yaml:"all_of"`
}

// ImageRule maps image description keywords to a concrete AMI ID
type ImageRule struct {
	ImageID string   `yaml:"image_id"`
	Match   []string `yaml:"match"`
}

// ResolverTablesConfig drives the parameter resolver's lookup heuristics
type ResolverTablesConfig struct {
	InstanceTypes       []InstanceTypeRule `yaml:"instance_types"`
	DefaultInstanceType string             `yaml:"default_instance_type"`
	Images              []ImageRule        `yaml:"images"`
	DefaultImageID      string             `yaml:"default_image_id"`
}

// NewSettingsLoader creates a new settings loader for the given directory
func NewSettingsLoader(settingsDir string) *SettingsLoader {
	return &SettingsLoader{settingsDir: settingsDir}
}

// LoadRoutingKeywords loads the routing keyword tables
func (s *SettingsLoader) LoadRoutingKeywords() (*RoutingKeywordsConfig, error) {
	config := DefaultRoutingKeywords()
	if err := s.loadYAMLFile("routing-keywords.yaml", config); err != nil {
		return nil, fmt.Errorf("failed to load routing keywords: %w", err)
	}
	return config, nil
}

// LoadResolverTables loads the resolver lookup tables
func (s *SettingsLoader) LoadResolverTables() (*ResolverTablesConfig, error) {
	config := DefaultResolverTables()
	if err := s.loadYAMLFile("resolver-tables.yaml", config); err != nil {
		return nil, fmt.Errorf("failed to load resolver tables: %w", err)
	}
	return config, nil
}

// loadYAMLFile unmarshals a YAML settings file over the provided defaults.
// A missing file leaves the defaults untouched.
func (s *SettingsLoader) loadYAMLFile(filename string, target interface{}) error {
	filePath := filepath.Join(s.settingsDir, filename)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read settings file %s: %w", filePath, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse settings file %s: %w", filePath, err)
	}
	return nil
}

// DefaultRoutingKeywords returns the built-in routing keyword tables
func DefaultRoutingKeywords() *RoutingKeywordsConfig {
	return &RoutingKeywordsConfig{
		Services: []ServiceKeywords{
			{Name: "ec2", Keywords: []string{"ec2", "instance", "server", "virtual machine", "vm", "compute"}},
			{Name: "s3", Keywords: []string{"s3", "storage", "bucket", "object", "file"}},
			{Name: "rds", Keywords: []string{"rds", "database", "db", "sql", "mysql", "postgresql", "aurora"}},
			{Name: "lambda", Keywords: []string{"lambda", "function", "serverless", "event-driven"}},
			{Name: "vpc", Keywords: []string{"vpc", "network", "subnet", "routing", "nat", "gateway"}},
		},
		Operations: []OperationKeywords{
			{Name: "create", Keywords: []string{"create", "launch", "start", "deploy", "provision", "set up", "setup"}},
			{Name: "read", Keywords: []string{"describe", "get", "list", "show", "display", "view"}},
			{Name: "update", Keywords: []string{"update", "modify", "change", "edit", "alter"}},
			{Name: "delete", Keywords: []string{"delete", "remove", "terminate", "destroy", "tear down"}},
			{Name: "lifecycle", Keywords: []string{"start", "stop", "reboot", "restart", "terminate", "hibernate", "resume"}},
		},
		InstanceNouns: []string{"instance", "server", "machine"},
	}
}

// DefaultResolverTables returns the built-in resolver lookup tables
func DefaultResolverTables() *ResolverTablesConfig {
	return &ResolverTablesConfig{
		InstanceTypes: []InstanceTypeRule{
			{InstanceType: "t3.micro", AllOf: [][]string{{"small", "micro"}, {"compute", "cpu"}}},
			{InstanceType: "r5.large", AllOf: [][]string{{"small", "micro"}, {"memory", "ram"}}},
			{InstanceType: "t3.micro", AllOf: [][]string{{"small", "micro"}}},
			{InstanceType: "c5.large", AllOf: [][]string{{"medium"}, {"compute", "cpu"}}},
			{InstanceType: "r5.large", AllOf: [][]string{{"medium"}, {"memory", "ram"}}},
			{InstanceType: "t3.medium", AllOf: [][]string{{"medium"}}},
			{InstanceType: "c5.xlarge", AllOf: [][]string{{"large"}, {"compute", "cpu"}}},
			{InstanceType: "r5.xlarge", AllOf: [][]string{{"large"}, {"memory", "ram"}}},
			{InstanceType: "m5.large", AllOf: [][]string{{"large"}}},
		},
		DefaultInstanceType: "t3.micro",
		Images: []ImageRule{
			{ImageID: "ami-0c55b159cbfafe1f0", Match: []string{"amazon linux"}},
			{ImageID: "ami-0dba2cb6798deb6d8", Match: []string{"ubuntu"}},
			{ImageID: "ami-0ab193018fec6aea5", Match: []string{"windows"}},
			{ImageID: "ami-0520e698dd500b1d1", Match: []string{"red hat", "rhel"}},
		},
		DefaultImageID: "ami-0c55b159cbfafe1f0",
	}
}
