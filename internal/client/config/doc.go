// Package config loads runtime configuration for the authbridge CLI.
//
// Sources, later wins:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags.
//
// Example JSON:
//
//	{
//	  "server_url": "https://app.example.com",
//	  "frontend_api_url": "https://clerk.example.com",
//	  "max_retries": 50,
//	  "initial_interval": "250ms"
//	}
package config
