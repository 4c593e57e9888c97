// Package config provides puzzle configuration management for the Rush Hour server.
//
// The config package handles:
//   - Loading puzzle configurations from JSON or YAML files
//   - Configuration validation through engine.ValidatePuzzleConfig
//   - Default configuration management
//   - Configuration discovery, listing and saving
//   - Cache refresh when files in the config directory change
//
// Configuration Format:
//
// Puzzles are stored as .json, .yaml or .yml files in the configs directory.
// Each configuration defines:
//   - Board width and height
//   - The exit side ("positive" for right/bottom, "negative" for left/top)
//   - Vehicles with orientation, position and length; the first is the main vehicle
//   - Player-facing messages
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load specific configuration
//	puzzle, err := manager.LoadConfig("beginner")
//
//	// Reload configurations when files change
//	if err := manager.Watch(ctx); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
// The default configuration is "classic" when present, otherwise the first
// valid file in the directory, otherwise the built-in 6x6 puzzle.
package config
