// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each infrastructure package declares its own Config struct with `env` tags
// and loads it through this package:
//
//	type MongoConfig struct {
//		URL string `env:"MONGODB_URL,required"`
//	}
//
//	var cfg MongoConfig
//	config.MustLoad(&cfg)
//
// Parsing is cached per type, so repeated loads of the same struct are cheap
// and always return the same values.
package config
