// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// settings are the options shared by the subcommands. They are read from a
// YAML config file, then from JDOM_* environment variables, then from flags.
type settings struct {
	Indent   int    `yaml:"indent"`    // spaces per level; 0 is compact
	MaxDepth int    `yaml:"max_depth"` // 0 uses the reader default
	Debug    bool   `yaml:"debug"`     // log at debug level
	Root     string `yaml:"root"`      // synthetic root element for json2xml

	ArrayAttribute bool   `yaml:"array_attribute"`
	OmitRoot       bool   `yaml:"omit_root"`
	Model          string `yaml:"model"` // "dom" or "tree"
}

func defaultSettings() settings { return settings{Model: "dom"} }

// loadConfig reads settings from the YAML file at path. Unknown keys are
// an error.
func loadConfig(path string, s *settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, s, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// envVar returns the value of the environment variable JDOM_<key>, with
// surrounding space and quotes removed.
func envVar(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv("JDOM_"+key)), "\"'")
}

// envInt reports the integer value of JDOM_<key>, if it is set.
func envInt(key string) (int, bool, error) {
	s := envVar(key)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("invalid JDOM_%s: %w", key, err)
	}
	return v, true, nil
}

// envBool reports the boolean value of JDOM_<key>. A value that is set but
// not a valid boolean counts as true.
func envBool(key string) (bool, bool) {
	s := envVar(key)
	if s == "" {
		return false, false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return true, true
	}
	return b, true
}

// applyEnv overrides s with the JDOM_* environment variables that are set.
func applyEnv(s *settings) error {
	if v, ok, err := envInt("INDENT"); err != nil {
		return err
	} else if ok {
		s.Indent = v
	}
	if v, ok, err := envInt("MAX_DEPTH"); err != nil {
		return err
	} else if ok {
		s.MaxDepth = v
	}
	if v, ok := envBool("DEBUG"); ok {
		s.Debug = v
	}
	if v := envVar("ROOT"); v != "" {
		s.Root = v
	}
	return nil
}

// loadSettings assembles the settings for cmd. Flags that were set on the
// command line take precedence over the environment and the config file.
func (a *app) loadSettings(cmd *cobra.Command) error {
	s := defaultSettings()
	if a.configPath != "" {
		if err := loadConfig(a.configPath, &s); err != nil {
			return err
		}
	}
	if err := applyEnv(&s); err != nil {
		return err
	}

	fs := cmd.Flags()
	if fs.Changed("indent") {
		s.Indent, _ = fs.GetInt("indent")
	}
	if fs.Changed("max-depth") {
		s.MaxDepth, _ = fs.GetInt("max-depth")
	}
	if a.verbose {
		s.Debug = true
	}
	if fs.Lookup("root") != nil && fs.Changed("root") {
		s.Root, _ = fs.GetString("root")
	}
	if fs.Lookup("array-attribute") != nil && fs.Changed("array-attribute") {
		s.ArrayAttribute, _ = fs.GetBool("array-attribute")
	}
	if fs.Lookup("omit-root") != nil && fs.Changed("omit-root") {
		s.OmitRoot, _ = fs.GetBool("omit-root")
	}
	if fs.Lookup("model") != nil && fs.Changed("model") {
		s.Model, _ = fs.GetString("model")
	}

	if s.Indent < 0 {
		return fmt.Errorf("invalid indent %d", s.Indent)
	}
	switch s.Model {
	case "dom", "tree":
	default:
		return fmt.Errorf("unknown XML model %q (want dom or tree)", s.Model)
	}
	a.cfg = s
	return nil
}
