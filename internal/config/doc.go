// Package config loads ticktask settings.
//
// Settings come from a YAML file (./ticktask_config.yaml, else
// ~/.ticktask/config.yaml), then a .env file in the working directory, then
// environment variables. Later sources win. A missing file is not an error.
//
// Environment overrides:
//
//	TICKTICK_CLIENT_ID, TICKTICK_CLIENT_SECRET, TICKTICK_REDIRECT_URI
//	TICKTASK_HOME         directory for the token and key files
//	OBSIDIAN_VAULT_PATH   Obsidian vault root
package config
