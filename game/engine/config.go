package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// VehicleConfig describes one vehicle in a puzzle file.
type VehicleConfig struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Orientation string `json:"orientation" yaml:"orientation" validate:"required,oneof=horizontal vertical h v up down left right"`
	X           int    `json:"x" yaml:"x" validate:"gte=0"`
	Y           int    `json:"y" yaml:"y" validate:"gte=0"`
	Length      int    `json:"length" yaml:"length" validate:"gte=1"`
}

// PuzzleMessages are the texts shown to players.
type PuzzleMessages struct {
	Welcome string `json:"welcome" yaml:"welcome"`
	Solved  string `json:"solved" yaml:"solved"`
	Blocked string `json:"blocked" yaml:"blocked"`
}

// PuzzleConfig is a puzzle definition loaded from JSON or YAML. The first
// vehicle is the main vehicle.
type PuzzleConfig struct {
	Name        string          `json:"name" yaml:"name" validate:"required"`
	Description string          `json:"description" yaml:"description" validate:"required"`
	Width       int             `json:"width" yaml:"width" validate:"gte=1,lte=16"`
	Height      int             `json:"height" yaml:"height" validate:"gte=1,lte=16"`
	Exit        string          `json:"exit" yaml:"exit" validate:"required,oneof=positive negative"`
	Vehicles    []VehicleConfig `json:"vehicles" yaml:"vehicles" validate:"required,min=1,max=26,dive"`
	Messages    PuzzleMessages  `json:"messages" yaml:"messages"`
}

var configValidate = validator.New()

// ValidatePuzzleConfig checks field constraints and then that the described
// board is well-formed: every vehicle inside the grid and no overlaps.
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if err := configValidate.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			if fe.Param() != "" {
				return fmt.Errorf("config validation: %s must satisfy %s=%s, got %v", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
			}
			return fmt.Errorf("config validation: %s failed %s", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config validation: %v", err)
	}

	if config.Messages.Solved != "" && !strings.Contains(config.Messages.Solved, "%d") {
		return fmt.Errorf("config validation: messages.solved must contain %%d for the move count")
	}

	board, err := config.Board()
	if err != nil {
		return fmt.Errorf("config validation: %v", err)
	}
	for i, v := range board.Vehicles {
		if !v.Within(board.Size) {
			return fmt.Errorf("config validation: vehicle %d (%s) at %s with size %s is outside the %dx%d board",
				i, Label(i), v.Position, v.Size, config.Width, config.Height)
		}
	}
	if !board.IsValid() {
		return fmt.Errorf("config validation: vehicles overlap")
	}
	if board.IsSolved() {
		return fmt.Errorf("config validation: puzzle is already solved")
	}
	return nil
}

// Board builds the initial board described by the config.
func (c *PuzzleConfig) Board() (Board, error) {
	exit, err := ParseDirection(c.Exit)
	if err != nil {
		return Board{}, err
	}
	vehicles := make([]Vehicle, 0, len(c.Vehicles))
	for i, vc := range c.Vehicles {
		o, err := ParseOrientation(vc.Orientation)
		if err != nil {
			return Board{}, fmt.Errorf("vehicle %d: %w", i, err)
		}
		vehicles = append(vehicles, NewVehicle(o, Vector{X: vc.X, Y: vc.Y}, vc.Length))
	}
	return NewBoard(vehicles, Vector{X: c.Width, Y: c.Height}, exit), nil
}

// ApplyDefaults fills empty messages.
func (c *PuzzleConfig) ApplyDefaults() {
	if c.Messages.Welcome == "" {
		c.Messages.Welcome = "Get vehicle A to the exit!"
	}
	if c.Messages.Solved == "" {
		c.Messages.Solved = "Solved in %d moves!"
	}
	if c.Messages.Blocked == "" {
		c.Messages.Blocked = "That move is blocked"
	}
}

// DecodePuzzleConfig parses data as YAML when ext is .yaml/.yml and as JSON otherwise.
func DecodePuzzleConfig(data []byte, ext string) (*PuzzleConfig, error) {
	var config PuzzleConfig
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// LoadPuzzleConfig loads and validates a puzzle file.
func LoadPuzzleConfig(filename string) (*PuzzleConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := DecodePuzzleConfig(data, filepath.Ext(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	return config, nil
}

// ConfigExtensions are the file extensions recognised as puzzle configs.
var ConfigExtensions = []string{".json", ".yaml", ".yml"}

// IsConfigFile reports whether name has a puzzle config extension.
func IsConfigFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ConfigExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindConfigFile resolves a config name inside dir, trying each extension.
func FindConfigFile(dir, name string) (string, error) {
	if IsConfigFile(name) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	for _, ext := range ConfigExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("config '%s' not found in %s: %w", name, dir, os.ErrNotExist)
}

// LoadConfigByName loads a puzzle by name from the configs directory
func LoadConfigByName(configName string) (*PuzzleConfig, error) {
	path, err := FindConfigFile("configs", configName)
	if err != nil {
		return nil, err
	}
	config, err := LoadPuzzleConfig(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config '%s': %w", configName, err)
	}
	return config, nil
}

// DefaultPuzzleConfig returns the built-in 6x6 puzzle used when no config
// directory is available.
func DefaultPuzzleConfig() *PuzzleConfig {
	config := &PuzzleConfig{
		Name:        "classic",
		Description: "Thirteen vehicles on a 6x6 lot, exit on the right",
		Width:       6,
		Height:      6,
		Exit:        "positive",
		Vehicles: []VehicleConfig{
			{ID: "main", Orientation: "horizontal", X: 2, Y: 2, Length: 2},
			{Orientation: "horizontal", X: 0, Y: 0, Length: 3},
			{Orientation: "horizontal", X: 1, Y: 1, Length: 2},
			{Orientation: "horizontal", X: 0, Y: 3, Length: 2},
			{Orientation: "horizontal", X: 4, Y: 4, Length: 2},
			{Orientation: "horizontal", X: 2, Y: 5, Length: 2},
			{Orientation: "horizontal", X: 4, Y: 5, Length: 2},
			{Orientation: "vertical", X: 3, Y: 0, Length: 2},
			{Orientation: "vertical", X: 4, Y: 0, Length: 3},
			{Orientation: "vertical", X: 5, Y: 0, Length: 3},
			{Orientation: "vertical", X: 0, Y: 1, Length: 2},
			{Orientation: "vertical", X: 2, Y: 3, Length: 2},
			{Orientation: "vertical", X: 1, Y: 4, Length: 2},
		},
	}
	config.ApplyDefaults()
	return config
}
